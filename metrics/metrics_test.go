package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agentgrid/agent"
	"github.com/hupe1980/agentgrid/auction"
	"github.com/hupe1980/agentgrid/bus"
	"github.com/hupe1980/agentgrid/envelope"
)

// Interface compliance (compile-time assertion)
var _ bus.Observer = (*Metrics)(nil)

func TestMetrics_EnvelopePublished(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.EnvelopePublished(envelope.TopicSignal, envelope.KindSignal)
	m.EnvelopePublished(envelope.TopicBids, envelope.KindBid)
	m.EnvelopePublished(envelope.TopicBids, envelope.KindBid)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnvelopesPublished.WithLabelValues(envelope.TopicSignal, "SIGNAL")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EnvelopesPublished.WithLabelValues(envelope.TopicBids, "BID")))
}

func TestMetrics_ObserveAuction(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAuction(&auction.Result{
		Contracts:   []envelope.Contract{{ContractID: "c-1"}, {ContractID: "c-2"}},
		Shortfall:   1.5,
		InvalidBids: 3,
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ContractsAwarded))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.AuctionShortfall))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.InvalidBids))
}

func TestMetrics_ObserveDispatchStats(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDispatchStats("der-a", agent.DispatchStats{
		Dispatches: 4,
		Violations: 1,
		Unverified: 2,
		Replays:    3,
		Depleted:   5,
	})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("der-a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Violations.WithLabelValues("der-a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Unverified.WithLabelValues("der-a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Replays.WithLabelValues("der-a")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Depleted.WithLabelValues("der-a")))
}
