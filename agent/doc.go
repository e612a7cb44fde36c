// Package agent provides the per-resource agent pair of a coordination
// domain: a Bidder that converts verified signals into signed bids, and a
// Dispatch gate that actuates verified, policy-compliant directives against
// the resource it exclusively owns.
//
// Both are mute agents: when an envelope fails verification or a policy
// check, they publish nothing at all. The absence of a downstream message is
// the only bus-visible signal for "no action taken"; callers needing the
// distinction between causes consult the agents' counters instead.
package agent
