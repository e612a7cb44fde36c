// Package auction implements the coordinator that converts competing bids
// into binding contracts under a capacity constraint. A run moves through
// IDLE → COLLECTING → ALLOCATING → IDLE: the coordinator broadcasts a signed
// signal, accumulates verified bids for the duration of the window, then runs
// a single-threaded, deterministic allocation pass: bids sorted ascending by
// price with first-published tie break, awards granted greedily until the
// requirement is met or bids run out. Unmet requirement is reported as a
// shortfall result value, never as an error.
package auction
