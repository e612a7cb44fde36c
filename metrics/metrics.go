package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/agentgrid/agent"
	"github.com/hupe1980/agentgrid/auction"
	"github.com/hupe1980/agentgrid/envelope"
)

// Metrics holds all Prometheus collectors for a coordination domain.
type Metrics struct {
	// EnvelopesPublished counts envelopes by topic and kind.
	EnvelopesPublished *prometheus.CounterVec

	// ContractsAwarded counts contracts produced by allocation passes.
	ContractsAwarded prometheus.Counter

	// AuctionShortfall records the unmet requirement of the last auction.
	AuctionShortfall prometheus.Gauge

	// InvalidBids counts bids dropped by the coordinator's trust gate.
	InvalidBids prometheus.Counter

	// Dispatches, Violations, Unverified, Replays and Depleted mirror the
	// dispatch gate counters per resource.
	Dispatches *prometheus.GaugeVec
	Violations *prometheus.GaugeVec
	Unverified *prometheus.GaugeVec
	Replays    *prometheus.GaugeVec
	Depleted   *prometheus.GaugeVec
}

// New creates and registers all collectors against reg. Pass
// prometheus.DefaultRegisterer for the process-global registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EnvelopesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgrid_envelopes_published_total",
				Help: "Total envelopes published on the bus",
			},
			[]string{"topic", "kind"},
		),
		ContractsAwarded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agentgrid_contracts_awarded_total",
				Help: "Total contracts awarded across auction runs",
			},
		),
		AuctionShortfall: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentgrid_auction_shortfall_units",
				Help: "Unmet requirement of the most recent auction run",
			},
		),
		InvalidBids: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agentgrid_invalid_bids_total",
				Help: "Bids dropped by the coordinator trust gate",
			},
		),
		Dispatches: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentgrid_dispatches_total",
				Help: "Successful dispatch executions per resource",
			},
			[]string{"resource_id"},
		),
		Violations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentgrid_policy_violations_total",
				Help: "Directives refused for exceeding the resource max rate",
			},
			[]string{"resource_id"},
		),
		Unverified: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentgrid_unverified_directives_total",
				Help: "Directives dropped by the dispatch trust gate",
			},
			[]string{"resource_id"},
		),
		Replays: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentgrid_replayed_directives_total",
				Help: "Directives refused because their contract was already executed",
			},
			[]string{"resource_id"},
		),
		Depleted: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentgrid_depleted_refusals_total",
				Help: "Directives refused at the resource reserve floor",
			},
			[]string{"resource_id"},
		),
	}
}

// EnvelopePublished implements bus.Observer.
func (m *Metrics) EnvelopePublished(topic string, kind envelope.Kind) {
	m.EnvelopesPublished.WithLabelValues(topic, string(kind)).Inc()
}

// ObserveAuction records the outcome of an auction run.
func (m *Metrics) ObserveAuction(result *auction.Result) {
	m.ContractsAwarded.Add(float64(len(result.Contracts)))
	m.AuctionShortfall.Set(result.Shortfall)
	m.InvalidBids.Add(float64(result.InvalidBids))
}

// ObserveDispatchStats mirrors a dispatch gate's counter snapshot into the
// per-resource gauges.
func (m *Metrics) ObserveDispatchStats(resourceID string, stats agent.DispatchStats) {
	m.Dispatches.WithLabelValues(resourceID).Set(float64(stats.Dispatches))
	m.Violations.WithLabelValues(resourceID).Set(float64(stats.Violations))
	m.Unverified.WithLabelValues(resourceID).Set(float64(stats.Unverified))
	m.Replays.WithLabelValues(resourceID).Set(float64(stats.Replays))
	m.Depleted.WithLabelValues(resourceID).Set(float64(stats.Depleted))
}
