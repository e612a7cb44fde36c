package agent

import (
	"math"
	"sync/atomic"

	"github.com/hupe1980/agentgrid/bus"
	"github.com/hupe1980/agentgrid/envelope"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/resource"
	"github.com/hupe1980/agentgrid/trust"
)

// DefaultPriceThreshold is the clearing price a signal must exceed before a
// bidder considers discharging worthwhile.
const DefaultPriceThreshold = 0.12

// DefaultBiddingFactor introduces no shading: the bidder offers everything
// its resource can deliver. Callers wanting jitter supply their own factor.
const DefaultBiddingFactor = 1.0

// BidderOptions configures a Bidder.
type BidderOptions struct {
	// PriceThreshold is the minimum attractive price per unit; signals at or
	// below it are ignored. Defaults to DefaultPriceThreshold.
	PriceThreshold float64

	// BiddingFactor shades the offered energy in (0,1]. The shading applies
	// to the available energy before the rate cap binds. Defaults to
	// DefaultBiddingFactor.
	BiddingFactor float64

	// SignalTopic and BidTopic override the conventional wire topics.
	SignalTopic string
	BidTopic    string

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// BidderStats is a snapshot of a bidder's monotonic counters.
type BidderStats struct {
	// Bids is the number of signed bids published.
	Bids uint64
	// Suppressed counts verified signals that produced no bid because the
	// resource could not discharge or the price was unattractive.
	Suppressed uint64
	// Unverified counts signals dropped by the trust gate.
	Unverified uint64
}

// Bidder reacts to broadcast signals by submitting signed bids for its
// resource. It reads the resource but never mutates it; actuation belongs to
// the paired Dispatch agent. A Bidder that cannot or will not bid publishes
// nothing.
type Bidder struct {
	BaseAgent
	res            *resource.Resource
	priceThreshold float64
	biddingFactor  float64
	signalTopic    string
	bidTopic       string

	bids       atomic.Uint64
	suppressed atomic.Uint64
	unverified atomic.Uint64
}

// NewBidder constructs a Bidder and subscribes it to the signal topic.
func NewBidder(name string, res *resource.Resource, b *bus.Bus, signer trust.Signer, verifier trust.Verifier, optFns ...func(o *BidderOptions)) *Bidder {
	opts := BidderOptions{
		PriceThreshold: DefaultPriceThreshold,
		BiddingFactor:  DefaultBiddingFactor,
		SignalTopic:    envelope.TopicSignal,
		BidTopic:       envelope.TopicBids,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Bidder{
		BaseAgent:      NewBaseAgent(name, b, signer, verifier, opts.Logger),
		res:            res,
		priceThreshold: opts.PriceThreshold,
		biddingFactor:  opts.BiddingFactor,
		signalTopic:    opts.SignalTopic,
		bidTopic:       opts.BidTopic,
	}
	b.Subscribe(a.signalTopic, a.onSignal)
	return a
}

// Resource returns the resource this bidder offers from (read-only).
func (a *Bidder) Resource() *resource.Resource { return a.res }

// Stats returns a snapshot of the bidder's counters.
func (a *Bidder) Stats() BidderStats {
	return BidderStats{
		Bids:       a.bids.Load(),
		Suppressed: a.suppressed.Load(),
		Unverified: a.unverified.Load(),
	}
}

// onSignal handles a broadcast signal. Every rejection path is mute: the
// signal is dropped without any bus-visible output, and only a counter
// records the cause.
func (a *Bidder) onSignal(env envelope.Envelope) {
	if !a.verifier.Verify(env) {
		a.unverified.Add(1)
		return
	}

	sig, ok := env.Signal()
	if !ok {
		// Wrong kind on the signal topic; treat as absent.
		return
	}

	if !a.res.CanDischarge() || sig.PricePerUnit <= a.priceThreshold {
		a.suppressed.Add(1)
		return
	}

	offered := math.Min(a.res.AvailableUnits()*a.biddingFactor, a.res.MaxRate())
	if offered <= 0 {
		a.suppressed.Add(1)
		return
	}

	bidEnv, err := envelope.New(envelope.KindBid, a.name, envelope.Bid{
		ResourceID:   a.res.ID(),
		OfferedUnits: offered,
		PricePerUnit: sig.PricePerUnit,
	})
	if err != nil {
		a.logger.Error("bidder failed to build bid envelope", "agent", a.name, "error", err)
		return
	}

	signed, err := a.signer.Sign(bidEnv)
	if err != nil {
		a.logger.Error("bidder failed to sign bid", "agent", a.name, "error", err)
		return
	}

	a.bus.Publish(a.bidTopic, signed)
	a.bids.Add(1)
	a.logger.Debug("bidder submitted bid", "agent", a.name, "resource_id", a.res.ID(), "offered_units", offered, "price_per_unit", sig.PricePerUnit)
}
