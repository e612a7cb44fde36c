// Package agentgrid provides a high-level façade over the trust-gated
// coordination core (bus, envelope trust gate, auction coordinator and
// per-resource agent pairs) enabling rapid construction of coordination
// domains. Most applications interact with this package by:
//  1. Creating a Grid via New() (optionally overriding the registry, logger
//     or metrics)
//  2. Adding one or more resources, each of which gets a bidder/dispatch
//     agent pair with a generated identity
//  3. Running auctions (Run) and reading the returned Summary
//
// The façade delegates the auction mechanics to auction.Coordinator while
// keeping setup and usage ergonomics concise. All defaults are safe for local
// development and testing; embedders wanting observability supply a
// structured logger and a metrics collector.
package agentgrid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentgrid/agent"
	"github.com/hupe1980/agentgrid/auction"
	"github.com/hupe1980/agentgrid/bus"
	"github.com/hupe1980/agentgrid/envelope"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/metrics"
	"github.com/hupe1980/agentgrid/resource"
	"github.com/hupe1980/agentgrid/trust"
)

// DefaultCoordinatorIdentity is the identity the coordinator signs with when
// none is configured.
const DefaultCoordinatorIdentity = "grid-operator"

// Options configures a Grid instance.
type Options struct {
	// CoordinatorIdentity is the signing identity of the auction
	// coordinator. Defaults to DefaultCoordinatorIdentity.
	CoordinatorIdentity string

	// Registry holds the identities and keys of the coordination domain.
	// Defaults to a fresh in-memory KeyRegistry.
	Registry *trust.KeyRegistry

	// PriceThreshold and BiddingFactor configure every bidder added through
	// AddResource. Zero values fall back to the agent package defaults.
	PriceThreshold float64
	BiddingFactor  float64

	// Metrics receives bus and run observations. Nil disables metrics.
	Metrics *metrics.Metrics

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Pair is the bidder/dispatch agent pair owning one resource.
type Pair struct {
	Bidder   *agent.Bidder
	Dispatch *agent.Dispatch
}

// Summary aggregates the externally observable outcome of one coordination
// run: the auction result, the acknowledgments that prove execution, and the
// counters that explain every silent refusal.
type Summary struct {
	Auction         *auction.Result
	Acks            []envelope.Ack
	DispatchedUnits float64
	DispatchStats   map[string]agent.DispatchStats
	BidderStats     map[string]agent.BidderStats
	Messages        int64
	Throughput      float64
	Elapsed         time.Duration
}

// Grid wires a bus, a trust registry, an auction coordinator and any number
// of resource-owning agent pairs into one coordination domain.
type Grid struct {
	opts        Options
	bus         *bus.Bus
	registry    *trust.KeyRegistry
	coordinator *auction.Coordinator
	logger      logging.Logger

	mu    sync.Mutex
	pairs map[string]*Pair // by resource id
	acks  []envelope.Ack
}

// New creates a Grid with optional overrides. Any unset collaborator is
// initialized with an in-memory default.
func New(optFns ...func(o *Options)) (*Grid, error) {
	opts := Options{
		CoordinatorIdentity: DefaultCoordinatorIdentity,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := opts.Registry
	if registry == nil {
		registry = trust.NewKeyRegistry()
	}
	if err := registry.Register(opts.CoordinatorIdentity); err != nil && !errors.Is(err, trust.ErrDuplicateIdentity) {
		return nil, fmt.Errorf("agentgrid: register coordinator identity: %w", err)
	}

	b := bus.New(func(o *bus.Options) {
		o.Logger = opts.Logger
		if opts.Metrics != nil {
			o.Observer = opts.Metrics
		}
	})

	g := &Grid{
		opts:     opts,
		bus:      b,
		registry: registry,
		logger:   opts.Logger,
		pairs:    make(map[string]*Pair),
	}

	g.coordinator = auction.New(opts.CoordinatorIdentity, b, registry, registry, func(o *auction.Options) {
		o.Logger = opts.Logger
	})

	// Observer aggregation: collect verified acknowledgments as proof of
	// execution. Unverifiable acks are treated as absent like everywhere
	// else.
	b.Subscribe(envelope.TopicAcks, func(env envelope.Envelope) {
		if !registry.Verify(env) {
			return
		}
		ack, ok := env.Ack()
		if !ok {
			return
		}
		g.mu.Lock()
		g.acks = append(g.acks, ack)
		g.mu.Unlock()
	})

	return g, nil
}

// Bus returns the underlying bus for collaborators that publish or subscribe
// directly (scenario drivers, UIs).
func (g *Grid) Bus() *bus.Bus { return g.bus }

// Registry returns the trust registry of this coordination domain.
func (g *Grid) Registry() *trust.KeyRegistry { return g.registry }

// Coordinator returns the auction coordinator.
func (g *Grid) Coordinator() *auction.Coordinator { return g.coordinator }

// AddResource creates the bidder/dispatch agent pair for a resource under a
// generated identity and registers its keypair. Each resource may be added
// once.
func (g *Grid) AddResource(res *resource.Resource) (*Pair, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.pairs[res.ID()]; exists {
		return nil, fmt.Errorf("agentgrid: resource %s already added", res.ID())
	}

	identity := "agent-" + res.ID()
	if err := g.registry.Register(identity); err != nil {
		return nil, fmt.Errorf("agentgrid: register identity for %s: %w", res.ID(), err)
	}

	bidder := agent.NewBidder(identity, res, g.bus, g.registry, g.registry, func(o *agent.BidderOptions) {
		if g.opts.PriceThreshold > 0 {
			o.PriceThreshold = g.opts.PriceThreshold
		}
		if g.opts.BiddingFactor > 0 {
			o.BiddingFactor = g.opts.BiddingFactor
		}
		o.Logger = g.logger
	})
	dispatch := agent.NewDispatch(identity, res, g.bus, g.registry, g.registry, func(o *agent.DispatchOptions) {
		o.Logger = g.logger
	})

	pair := &Pair{Bidder: bidder, Dispatch: dispatch}
	g.pairs[res.ID()] = pair
	return pair, nil
}

// Run executes one full coordination cycle: broadcast the signal, collect
// bids for the window, allocate contracts, issue directives and aggregate
// the acknowledgments that came back. The entire cascade below the auction
// window is synchronous bus delivery, so when Run returns the Summary is
// complete.
func (g *Grid) Run(ctx context.Context, requirement, pricePerUnit float64, window time.Duration) (*Summary, error) {
	started := time.Now()

	g.mu.Lock()
	ackBase := len(g.acks)
	g.mu.Unlock()

	result, err := g.coordinator.RunAuction(ctx, requirement, pricePerUnit, window)
	if err != nil {
		return nil, err
	}

	if err := g.coordinator.IssueDirectives(result.Contracts); err != nil {
		return nil, err
	}

	g.mu.Lock()
	acks := make([]envelope.Ack, len(g.acks)-ackBase)
	copy(acks, g.acks[ackBase:])

	dispatchStats := make(map[string]agent.DispatchStats, len(g.pairs))
	bidderStats := make(map[string]agent.BidderStats, len(g.pairs))
	for id, pair := range g.pairs {
		dispatchStats[id] = pair.Dispatch.Stats()
		bidderStats[id] = pair.Bidder.Stats()
	}
	g.mu.Unlock()

	var dispatched float64
	for _, ack := range acks {
		dispatched += ack.ActualUnits
	}

	summary := &Summary{
		Auction:         result,
		Acks:            acks,
		DispatchedUnits: dispatched,
		DispatchStats:   dispatchStats,
		BidderStats:     bidderStats,
		Messages:        g.bus.PublishedCount(),
		Throughput:      g.bus.Throughput(),
		Elapsed:         time.Since(started),
	}

	if g.opts.Metrics != nil {
		g.opts.Metrics.ObserveAuction(result)
		for id, stats := range dispatchStats {
			g.opts.Metrics.ObserveDispatchStats(id, stats)
		}
	}

	return summary, nil
}
