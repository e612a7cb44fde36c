package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fleetYAML = `
coordinator: grid-operator
price_threshold: 0.12
bidding_factor: 0.9
resources:
  - id: der-a
    capacity_units: 10
    state_of_charge: 1.0
    max_rate: 5
  - id: der-b
    capacity_units: 10
    state_of_charge: 0.5
    max_rate: 5
    reserve_fraction: 0.2
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(fleetYAML))
	require.NoError(t, err)

	assert.Equal(t, "grid-operator", cfg.Coordinator)
	assert.Equal(t, 0.12, cfg.PriceThreshold)
	assert.Equal(t, 0.9, cfg.BiddingFactor)
	require.Len(t, cfg.Resources, 2)
	assert.Equal(t, "der-a", cfg.Resources[0].ID)
	assert.Equal(t, 0.2, cfg.Resources[1].ReserveFraction)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("resources: []"))
	assert.ErrorIs(t, err, ErrNoResources)

	_, err = Parse([]byte(`
resources:
  - id: der-a
    capacity_units: 10
    state_of_charge: 1.0
    max_rate: 5
  - id: der-a
    capacity_units: 10
    state_of_charge: 1.0
    max_rate: 5
`))
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = Parse([]byte("resources: {not valid"))
	assert.Error(t, err)
}

func TestConfig_Build(t *testing.T) {
	cfg, err := Parse([]byte(fleetYAML))
	require.NoError(t, err)

	grid, err := cfg.Build()
	require.NoError(t, err)

	summary, err := grid.Run(context.Background(), 8, 0.20, 30*time.Millisecond)
	require.NoError(t, err)

	// der-a offers 5 (rate-capped), der-b offers 4.5; the residual 3 goes to
	// der-b and both acknowledge in full.
	assert.Len(t, summary.Auction.Contracts, 2)
	assert.InDelta(t, 8, summary.DispatchedUnits, 1e-9)
	assert.Zero(t, summary.Auction.Shortfall)
}

func TestConfig_BuildRejectsInvalidResource(t *testing.T) {
	cfg := &Config{Resources: []ResourceConfig{{ID: "der-a", CapacityUnits: -1, StateOfCharge: 0.5, MaxRate: 5}}}
	_, err := cfg.Build()
	assert.Error(t, err)
}
