//go:build property
// +build property

package auction

import (
	"fmt"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hupe1980/agentgrid/bus"
	"github.com/hupe1980/agentgrid/envelope"
	"github.com/hupe1980/agentgrid/trust"
)

// allocateBids runs the allocation pass over synthetic bids and returns the
// result, or nil when the inputs produce no well-formed bid set.
func allocateBids(t *testing.T, units, prices []float64, requirement float64) *Result {
	t.Helper()

	b := bus.New()
	registry := trust.NewKeyRegistry()
	if err := registry.Register("grid-operator"); err != nil {
		t.Fatalf("register: %v", err)
	}
	c := New("grid-operator", b, registry, registry)

	var collected []envelope.Envelope
	for i := 0; i < len(units) && i < len(prices); i++ {
		env, err := envelope.New(envelope.KindBid, fmt.Sprintf("agent-%d", i), envelope.Bid{
			ResourceID:   fmt.Sprintf("der-%d", i),
			OfferedUnits: units[i],
			PricePerUnit: prices[i],
		})
		if err != nil {
			t.Fatalf("envelope.New: %v", err)
		}
		collected = append(collected, env)
	}

	result, err := c.allocate(collected, requirement, 0)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	return result
}

// TestAllocationBounds verifies the core conservation property of the greedy
// allocation pass.
// Property: AwardedUnits == min(requirement, sum(offered)) and
// Shortfall == requirement - AwardedUnits.
func TestAllocationBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("awards never exceed requirement or supply", prop.ForAll(
		func(units, prices []float64, requirement float64) bool {
			result := allocateBids(t, units, prices, requirement)

			var offered float64
			for i := 0; i < len(units) && i < len(prices); i++ {
				offered += units[i]
			}
			want := requirement
			if offered < want {
				want = offered
			}

			const eps = 1e-6
			if result.AwardedUnits > want+eps || result.AwardedUnits < want-eps {
				return false
			}
			return result.Shortfall >= -eps && result.Shortfall <= requirement-result.AwardedUnits+eps
		},
		gen.SliceOf(gen.Float64Range(0.1, 10)),
		gen.SliceOf(gen.Float64Range(0.01, 1)),
		gen.Float64Range(0, 50),
	))

	properties.TestingRun(t)
}

// TestAllocationOrdering verifies cheap supply is always consumed first.
// Property: contract prices are non-decreasing and every award is bounded by
// the bid that produced it.
func TestAllocationOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("contracts come out in non-decreasing price order", prop.ForAll(
		func(units, prices []float64, requirement float64) bool {
			result := allocateBids(t, units, prices, requirement)

			if !sort.SliceIsSorted(result.Contracts, func(i, j int) bool {
				return result.Contracts[i].PricePerUnit < result.Contracts[j].PricePerUnit
			}) {
				return false
			}

			offered := make(map[string]float64)
			for i := 0; i < len(units) && i < len(prices); i++ {
				offered[fmt.Sprintf("der-%d", i)] = units[i]
			}
			for _, contract := range result.Contracts {
				if contract.AwardedUnits > offered[contract.ResourceID]+1e-6 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0.1, 10)),
		gen.SliceOf(gen.Float64Range(0.01, 1)),
		gen.Float64Range(0, 50),
	))

	properties.TestingRun(t)
}
