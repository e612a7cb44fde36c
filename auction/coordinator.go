package auction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/agentgrid/bus"
	"github.com/hupe1980/agentgrid/envelope"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/trust"
)

// State identifies the coordinator's position in the auction lifecycle.
type State int

const (
	// StateIdle means no auction is in progress.
	StateIdle State = iota
	// StateCollecting means a signal is out and bids are being accumulated.
	StateCollecting
	// StateAllocating means the bid window closed and contracts are being
	// awarded.
	StateAllocating
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCollecting:
		return "COLLECTING"
	case StateAllocating:
		return "ALLOCATING"
	default:
		return "UNKNOWN"
	}
}

// ErrAuctionInProgress is returned when RunAuction is called while a previous
// run has not completed.
var ErrAuctionInProgress = errors.New("auction: run already in progress")

// Options configures a Coordinator.
type Options struct {
	// SignalTopic, BidTopic, ContractTopic and DispatchTopic override the
	// conventional wire topics.
	SignalTopic   string
	BidTopic      string
	ContractTopic string
	DispatchTopic string

	// Now supplies the clock for run timing. Defaults to time.Now.
	Now func() time.Time

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Result is the outcome of one auction run. A shortfall is a reported value,
// not an error: bids being insufficient is a valid terminal outcome.
type Result struct {
	// Contracts holds the awards in allocation order (non-decreasing price).
	Contracts []envelope.Contract
	// AwardedUnits is the cumulative units across all contracts.
	AwardedUnits float64
	// Shortfall is the portion of the requirement left unmet.
	Shortfall float64
	// BidsConsidered is the number of verified bids in the allocation pass.
	BidsConsidered int
	// InvalidBids is the number of bids dropped by the trust gate during
	// this run's collection window.
	InvalidBids int
}

// Coordinator broadcasts capacity requirements, collects bids within a
// window and greedily allocates contracts. Bid collection may be concurrent;
// the allocation pass is single-threaded and atomic with respect to the bid
// set it considers. Bids delivered after the window closes are excluded
// even if delivery races with allocation.
type Coordinator struct {
	name   string
	bus    *bus.Bus
	signer trust.Signer
	verif  trust.Verifier
	logger logging.Logger
	now    func() time.Time

	signalTopic   string
	bidTopic      string
	contractTopic string
	dispatchTopic string

	mu      sync.Mutex
	state   State
	bids    []envelope.Envelope // verified bids in arrival order
	invalid int
}

// New constructs a Coordinator publishing under the given identity and
// subscribes it to the bid topic.
func New(name string, b *bus.Bus, signer trust.Signer, verifier trust.Verifier, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		SignalTopic:   envelope.TopicSignal,
		BidTopic:      envelope.TopicBids,
		ContractTopic: envelope.TopicContracts,
		DispatchTopic: envelope.TopicDispatch,
		Now:           time.Now,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Coordinator{
		name:          name,
		bus:           b,
		signer:        signer,
		verif:         verifier,
		logger:        opts.Logger,
		now:           opts.Now,
		signalTopic:   opts.SignalTopic,
		bidTopic:      opts.BidTopic,
		contractTopic: opts.ContractTopic,
		dispatchTopic: opts.DispatchTopic,
		state:         StateIdle,
	}
	b.Subscribe(c.bidTopic, c.onBid)
	return c
}

// Name returns the coordinator's identity.
func (c *Coordinator) Name() string { return c.name }

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// onBid accumulates bids while collecting. Bids failing verification are
// dropped and counted but never influence allocation; bids arriving outside
// a collection window are excluded by the state check under the same mutex
// that guards the window close.
func (c *Coordinator) onBid(env envelope.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCollecting {
		return
	}
	if !c.verif.Verify(env) {
		c.invalid++
		return
	}
	if _, ok := env.Bid(); !ok {
		c.invalid++
		return
	}
	c.bids = append(c.bids, env)
}

// RunAuction broadcasts a signed signal carrying the requirement, clearing
// price and window, waits out the window (a timeout-governed barrier, not a
// condition wait), then allocates contracts. Each award publishes exactly one
// signed contract before the next bid is considered. The context only bounds
// the window wait; allocation itself runs to completion.
func (c *Coordinator) RunAuction(ctx context.Context, requirement, pricePerUnit float64, window time.Duration) (*Result, error) {
	started := c.now()

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrAuctionInProgress
	}
	c.state = StateCollecting
	c.bids = nil
	c.invalid = 0
	c.mu.Unlock()

	sigEnv, err := envelope.New(envelope.KindSignal, c.name, envelope.Signal{
		RequiredUnits: requirement,
		PricePerUnit:  pricePerUnit,
		Window:        window,
	})
	if err != nil {
		c.reset()
		return nil, err
	}
	signed, err := c.signer.Sign(sigEnv)
	if err != nil {
		c.reset()
		return nil, fmt.Errorf("auction: sign signal: %w", err)
	}
	c.bus.Publish(c.signalTopic, signed)

	select {
	case <-ctx.Done():
		c.reset()
		return nil, ctx.Err()
	case <-time.After(window):
	}

	// Window close and bid snapshot happen in one critical section so a bid
	// delivered after this point can never join the allocation pass.
	c.mu.Lock()
	c.state = StateAllocating
	collected := c.bids
	c.bids = nil
	invalid := c.invalid
	c.mu.Unlock()

	result, err := c.allocate(collected, requirement, invalid)
	c.reset()
	if err != nil {
		return nil, err
	}

	c.logger.Info("auction completed",
		"requirement", requirement,
		"awarded_units", result.AwardedUnits,
		"shortfall", result.Shortfall,
		"contracts", len(result.Contracts),
		"bids_considered", result.BidsConsidered,
		"invalid_bids", result.InvalidBids,
		"duration", c.now().Sub(started),
	)
	return result, nil
}

// allocate runs the deterministic allocation pass over a bid snapshot.
func (c *Coordinator) allocate(collected []envelope.Envelope, requirement float64, invalid int) (*Result, error) {
	// Ascending price; the stable sort keeps arrival order for equal prices
	// so the first-published bid wins ties.
	sort.SliceStable(collected, func(i, j int) bool {
		bi, _ := collected[i].Bid()
		bj, _ := collected[j].Bid()
		return bi.PricePerUnit < bj.PricePerUnit
	})

	result := &Result{BidsConsidered: len(collected), InvalidBids: invalid}
	remaining := requirement

	for _, env := range collected {
		if remaining <= 0 {
			break
		}
		bid, _ := env.Bid()

		award := bid.OfferedUnits
		if award > remaining {
			award = remaining
		}

		contract := envelope.Contract{
			ContractID:   uuid.NewString(),
			BidderID:     env.Sender,
			ResourceID:   bid.ResourceID,
			AwardedUnits: award,
			PricePerUnit: bid.PricePerUnit,
		}

		cEnv, err := envelope.New(envelope.KindContract, c.name, contract)
		if err != nil {
			return nil, err
		}
		signedContract, err := c.signer.Sign(cEnv)
		if err != nil {
			return nil, fmt.Errorf("auction: sign contract: %w", err)
		}
		c.bus.Publish(c.contractTopic, signedContract)

		result.Contracts = append(result.Contracts, contract)
		result.AwardedUnits += award
		remaining -= award
	}

	if remaining > 0 {
		result.Shortfall = remaining
	}
	return result, nil
}

// IssueDirectives translates awarded contracts into signed directives, one
// per contract, published in contract order on the dispatch topic.
func (c *Coordinator) IssueDirectives(contracts []envelope.Contract) error {
	for _, contract := range contracts {
		dEnv, err := envelope.New(envelope.KindDirective, c.name, envelope.Directive{
			ContractID:     contract.ContractID,
			ResourceID:     contract.ResourceID,
			RequestedUnits: contract.AwardedUnits,
		})
		if err != nil {
			return err
		}
		signed, err := c.signer.Sign(dEnv)
		if err != nil {
			return fmt.Errorf("auction: sign directive: %w", err)
		}
		c.bus.Publish(c.dispatchTopic, signed)
	}
	return nil
}

// InvalidBids returns the number of bids dropped by the trust gate during the
// current or most recent collection window.
func (c *Coordinator) InvalidBids() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalid
}

func (c *Coordinator) reset() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}
