package agent

import (
	"github.com/hupe1980/agentgrid/bus"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/trust"
)

// BaseAgent bundles the identity and collaborators shared by every agent:
// the bus it communicates through, the signer it publishes with and the
// verifier it gates inbound envelopes on. Embed it in concrete agents.
// Agents never hold references to each other; the bus is the only channel.
type BaseAgent struct {
	name     string
	bus      *bus.Bus
	signer   trust.Signer
	verifier trust.Verifier
	logger   logging.Logger
}

// NewBaseAgent constructs a BaseAgent. A nil logger is replaced with the
// no-op logger so embedding agents never need nil checks.
func NewBaseAgent(name string, b *bus.Bus, signer trust.Signer, verifier trust.Verifier, logger logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{name: name, bus: b, signer: signer, verifier: verifier, logger: logger}
}

// Name returns the agent's identity as used on the bus and in signatures.
func (b *BaseAgent) Name() string { return b.name }
