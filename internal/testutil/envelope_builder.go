package testutil

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentgrid/envelope"
	"github.com/hupe1980/agentgrid/trust"
)

// EnvelopeBuilder provides a fluent helper for constructing envelopes in
// tests. Example:
//
//	env := NewEnvelopeBuilder().Sender("grid-operator").Signal(8, 0.20).SignedWith(registry).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EnvelopeBuilder struct {
	sender  string
	kind    envelope.Kind
	payload envelope.Payload
	signer  trust.Signer
	err     error
}

// NewEnvelopeBuilder creates a builder with default sender "grid-operator".
func NewEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{sender: "grid-operator"}
}

// Sender sets the sender identity (chainable).
func (b *EnvelopeBuilder) Sender(s string) *EnvelopeBuilder { b.sender = s; return b }

// Signal sets a signal payload with a 50ms default window (chainable).
func (b *EnvelopeBuilder) Signal(requiredUnits, pricePerUnit float64) *EnvelopeBuilder {
	b.kind = envelope.KindSignal
	b.payload = envelope.Signal{
		RequiredUnits: requiredUnits,
		PricePerUnit:  pricePerUnit,
		Window:        50 * time.Millisecond,
	}
	return b
}

// Bid sets a bid payload (chainable).
func (b *EnvelopeBuilder) Bid(resourceID string, offeredUnits, pricePerUnit float64) *EnvelopeBuilder {
	b.kind = envelope.KindBid
	b.payload = envelope.Bid{
		ResourceID:   resourceID,
		OfferedUnits: offeredUnits,
		PricePerUnit: pricePerUnit,
	}
	return b
}

// Directive sets a directive payload (chainable).
func (b *EnvelopeBuilder) Directive(contractID, resourceID string, requestedUnits float64) *EnvelopeBuilder {
	b.kind = envelope.KindDirective
	b.payload = envelope.Directive{
		ContractID:     contractID,
		ResourceID:     resourceID,
		RequestedUnits: requestedUnits,
	}
	return b
}

// Ack sets an acknowledgment payload timestamped now (chainable).
func (b *EnvelopeBuilder) Ack(contractID, resourceID string, actualUnits, newStateOfCharge float64) *EnvelopeBuilder {
	b.kind = envelope.KindAck
	b.payload = envelope.Ack{
		ContractID:       contractID,
		ResourceID:       resourceID,
		ActualUnits:      actualUnits,
		NewStateOfCharge: newStateOfCharge,
		Timestamp:        time.Now().UTC(),
	}
	return b
}

// SignedWith signs the built envelope with the given signer (chainable). The
// sender identity must be registered with the signer.
func (b *EnvelopeBuilder) SignedWith(s trust.Signer) *EnvelopeBuilder { b.signer = s; return b }

// Build constructs the envelope, panicking on construction errors so tests
// fail loudly on misuse.
func (b *EnvelopeBuilder) Build() envelope.Envelope {
	env, err := envelope.New(b.kind, b.sender, b.payload)
	if err != nil {
		panic(fmt.Sprintf("testutil: build envelope: %v", err))
	}
	if b.signer != nil {
		signed, err := b.signer.Sign(env)
		if err != nil {
			panic(fmt.Sprintf("testutil: sign envelope: %v", err))
		}
		return signed
	}
	return env
}
