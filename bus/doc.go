// Package bus implements the topic-addressed publish/subscribe router that is
// the single synchronization point of a coordination domain. Publishing
// appends to per-topic history and synchronously delivers to every current
// subscriber in per-topic FIFO order; no ordering is guaranteed across
// topics. Handler failures are isolated: a panicking subscriber is logged and
// skipped, never propagated back into Publish.
//
// The bus is explicit process-scoped state with a constructor and no ambient
// singletons; every component receives a *Bus reference.
package bus
