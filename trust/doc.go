// Package trust implements the gate consulted before any envelope payload is
// acted upon. It exposes Signer and Verifier capability interfaces so the core
// depends only on the contract (deterministic, tamper-evident), plus a
// concrete Ed25519 KeyRegistry binding signatures to the envelope's id, kind,
// sender, payload and issue time through canonical JSON.
//
// Verification never returns an error: an envelope with no signature, an
// unknown sender or a signature that fails to validate is simply untrusted,
// and every consumer treats such an envelope as absent.
package trust
