// Package envelope defines the signed message wrapper circulated on the bus
// and the typed payload records it may carry. An Envelope binds an identifier,
// a Kind, a sender identity and a kind-specific payload; construction rejects
// any payload that does not match its declared kind, which is the only class
// of error surfaced as a hard failure anywhere in the coordination core.
//
// The package also owns the wire-level topic names, since the envelope schema
// is the contract external collaborators (scenario drivers, CLIs, UIs) depend
// on.
package envelope
