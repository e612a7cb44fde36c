package agent

import (
	"sync"
	"time"

	"github.com/hupe1980/agentgrid/bus"
	"github.com/hupe1980/agentgrid/envelope"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/resource"
	"github.com/hupe1980/agentgrid/trust"
)

// DispatchOptions configures a Dispatch agent.
type DispatchOptions struct {
	// DispatchTopic and AckTopic override the conventional wire topics.
	DispatchTopic string
	AckTopic      string

	// Now supplies the clock for acknowledgment timestamps.
	// Defaults to time.Now.
	Now func() time.Time

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// DispatchStats is a snapshot of a dispatch agent's monotonic counters. The
// counters are the only way to distinguish why a directive produced no
// acknowledgment; on the bus all rejection causes look identical.
type DispatchStats struct {
	// Dispatches counts successful executions (one acknowledgment each).
	Dispatches uint64
	// Violations counts directives refused because the requested units
	// exceeded the resource's maximum rate.
	Violations uint64
	// Unverified counts directives dropped by the trust gate.
	Unverified uint64
	// Replays counts directives refused because their contract was already
	// executed.
	Replays uint64
	// Depleted counts directives refused because the resource was at or
	// below its reserve floor.
	Depleted uint64
}

// Dispatch is the safety-critical mute gate. It exclusively owns its resource
// and is the only component that mutates it. On a directive it verifies
// trust, refuses contract replays, enforces the rate policy and the reserve
// floor, and only after all gates pass does it discharge and publish a signed
// acknowledgment. Every refusal is silent: no message, no error, no state
// change, just a counter.
type Dispatch struct {
	BaseAgent
	res           *resource.Resource
	dispatchTopic string
	ackTopic      string
	now           func() time.Time

	mu    sync.Mutex
	seen  map[string]struct{}
	stats DispatchStats
}

// NewDispatch constructs a Dispatch agent and subscribes it to the dispatch
// topic.
func NewDispatch(name string, res *resource.Resource, b *bus.Bus, signer trust.Signer, verifier trust.Verifier, optFns ...func(o *DispatchOptions)) *Dispatch {
	opts := DispatchOptions{
		DispatchTopic: envelope.TopicDispatch,
		AckTopic:      envelope.TopicAcks,
		Now:           time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Dispatch{
		BaseAgent:     NewBaseAgent(name, b, signer, verifier, opts.Logger),
		res:           res,
		dispatchTopic: opts.DispatchTopic,
		ackTopic:      opts.AckTopic,
		now:           opts.Now,
		seen:          make(map[string]struct{}),
	}
	b.Subscribe(a.dispatchTopic, a.onDirective)
	return a
}

// Resource returns the resource this agent owns.
func (a *Dispatch) Resource() *resource.Resource { return a.res }

// Stats returns a snapshot of the gate's counters.
func (a *Dispatch) Stats() DispatchStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// onDirective evaluates a directive in strict gate order: trust, replay,
// rate policy, reserve floor, execute. The first failing gate counts the
// cause and returns with no other effect.
func (a *Dispatch) onDirective(env envelope.Envelope) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// 1. Trust gate. Payload fields are never inspected before this passes.
	if !a.verifier.Verify(env) {
		a.stats.Unverified++
		return
	}

	dir, ok := env.Directive()
	if !ok {
		// Wrong kind on the dispatch topic; treat as absent.
		return
	}

	// Directives address a single resource; others on the shared topic are
	// not for this agent.
	if dir.ResourceID != a.res.ID() {
		return
	}

	// 2. Replay gate: at most one execution per contract. Only successful
	// dispatches mark the contract as seen, so a directive refused by a
	// later gate can be retried.
	if _, executed := a.seen[dir.ContractID]; executed {
		a.stats.Replays++
		return
	}

	// 3. Rate policy.
	if dir.RequestedUnits > a.res.MaxRate() {
		a.stats.Violations++
		return
	}

	// 4. Reserve floor.
	if !a.res.CanDischarge() {
		a.stats.Depleted++
		return
	}

	// 5. Execute.
	actual := a.res.Discharge(dir.RequestedUnits)
	if actual <= 0 {
		a.stats.Depleted++
		return
	}

	ackEnv, err := envelope.New(envelope.KindAck, a.name, envelope.Ack{
		ContractID:       dir.ContractID,
		ResourceID:       a.res.ID(),
		ActualUnits:      actual,
		NewStateOfCharge: a.res.StateOfCharge(),
		Timestamp:        a.now().UTC(),
	})
	if err != nil {
		a.logger.Error("dispatch failed to build ack envelope", "agent", a.name, "error", err)
		return
	}

	signed, err := a.signer.Sign(ackEnv)
	if err != nil {
		a.logger.Error("dispatch failed to sign ack", "agent", a.name, "error", err)
		return
	}

	a.seen[dir.ContractID] = struct{}{}
	a.stats.Dispatches++
	a.bus.Publish(a.ackTopic, signed)
	a.logger.Info("dispatch executed",
		"agent", a.name,
		"resource_id", a.res.ID(),
		"contract_id", dir.ContractID,
		"requested_units", dir.RequestedUnits,
		"actual_units", actual,
		"state_of_charge", a.res.StateOfCharge(),
	)
}
