package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Kind discriminates the five envelope payload variants.
type Kind string

const (
	// KindSignal opens a bid-collection window.
	KindSignal Kind = "SIGNAL"
	// KindBid is a bidder's offer in response to a signal.
	KindBid Kind = "BID"
	// KindContract is an award produced by the coordinator's allocation pass.
	KindContract Kind = "CONTRACT"
	// KindDirective instructs a dispatch agent to actuate a contract.
	KindDirective Kind = "DIRECTIVE"
	// KindAck acknowledges a successful, policy-compliant dispatch.
	KindAck Kind = "ACK"
)

// Valid reports whether k is one of the five defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSignal, KindBid, KindContract, KindDirective, KindAck:
		return true
	}
	return false
}

// Envelope wraps a typed payload with sender identity and an optional
// signature. After construction it should be treated as immutable; a non-empty
// Signature is necessary but not sufficient for trust and every consumer must
// independently run it through a trust.Verifier before inspecting Payload.
type Envelope struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Sender    string    `json:"sender"`
	Payload   Payload   `json:"payload"`
	IssuedAt  time.Time `json:"issued_at"`
	Signature []byte    `json:"signature,omitempty"`
}

// Options configures envelope construction.
type Options struct {
	// ID overrides the generated envelope identifier. Leave empty to use a UUID.
	ID string
	// IssuedAt overrides the producer clock. Zero means time.Now().UTC().
	IssuedAt time.Time
}

// New constructs an unsigned envelope, rejecting any payload that does not
// match the declared kind or fails its structural invariants. This is the
// single choke point absorbing the structural error class: a malformed
// envelope must never reach the bus.
func New(kind Kind, sender string, payload Payload, optFns ...func(o *Options)) (Envelope, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if !kind.Valid() {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if sender == "" {
		return Envelope{}, ErrEmptySender
	}
	if payload == nil {
		return Envelope{}, ErrNilPayload
	}
	if payload.PayloadKind() != kind {
		return Envelope{}, fmt.Errorf("%w: declared %s, payload is %s", ErrKindMismatch, kind, payload.PayloadKind())
	}
	if err := payload.validate(); err != nil {
		return Envelope{}, err
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	issuedAt := opts.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	return Envelope{
		ID:       id,
		Kind:     kind,
		Sender:   sender,
		Payload:  payload,
		IssuedAt: issuedAt,
	}, nil
}

// IsSigned reports whether a signature is attached. Absence means the
// envelope is unverifiable and must be treated as absent by consumers.
func (e Envelope) IsSigned() bool { return len(e.Signature) > 0 }

// SigningBytes returns the canonical byte representation covered by the
// signature: id, kind, sender, payload and issuedAt, in RFC 8785 canonical
// JSON form. Mutating any of those fields changes the result.
func (e Envelope) SigningBytes() ([]byte, error) {
	view := struct {
		ID       string  `json:"id"`
		Kind     Kind    `json:"kind"`
		Sender   string  `json:"sender"`
		Payload  Payload `json:"payload"`
		IssuedAt int64   `json:"issued_at_ns"`
	}{e.ID, e.Kind, e.Sender, e.Payload, e.IssuedAt.UnixNano()}

	raw, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal signing view: %w", err)
	}
	return jcs.Transform(raw)
}

// Signal returns the payload as a Signal record if the envelope carries one.
func (e Envelope) Signal() (Signal, bool) {
	p, ok := e.Payload.(Signal)
	return p, ok
}

// Bid returns the payload as a Bid record if the envelope carries one.
func (e Envelope) Bid() (Bid, bool) {
	p, ok := e.Payload.(Bid)
	return p, ok
}

// Contract returns the payload as a Contract record if the envelope carries one.
func (e Envelope) Contract() (Contract, bool) {
	p, ok := e.Payload.(Contract)
	return p, ok
}

// Directive returns the payload as a Directive record if the envelope carries one.
func (e Envelope) Directive() (Directive, bool) {
	p, ok := e.Payload.(Directive)
	return p, ok
}

// Ack returns the payload as an Ack record if the envelope carries one.
func (e Envelope) Ack() (Ack, bool) {
	p, ok := e.Payload.(Ack)
	return p, ok
}
