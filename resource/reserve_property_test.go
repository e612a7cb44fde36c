//go:build property
// +build property

package resource

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestReserveFloorInvariant verifies the safety property of Discharge.
// Property: no sequence of discharge requests ever drives the state of charge
// below the reserve fraction, and every delivery is bounded by the request.
func TestReserveFloorInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("state of charge never crosses the reserve floor", prop.ForAll(
		func(capacity, charge, reserve float64, requests []float64) bool {
			if charge < reserve {
				charge = reserve
			}
			r, err := New("der-prop", capacity, charge, 5, func(o *Options) {
				o.ReserveFraction = reserve
			})
			if err != nil {
				return false
			}

			const eps = 1e-9
			for _, req := range requests {
				actual := r.Discharge(req)
				if actual > req+eps {
					return false
				}
				if r.StateOfCharge() < r.ReserveFraction()-eps {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 100),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 0.9),
		gen.SliceOf(gen.Float64Range(0, 20)),
	))

	properties.TestingRun(t)
}
