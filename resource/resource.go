package resource

import (
	"errors"
	"fmt"
	"math"
)

// DefaultReserveFraction is the minimum state of charge retained when no
// explicit reserve is configured.
const DefaultReserveFraction = 0.1

// Structural validation errors raised at construction time.
var (
	ErrEmptyID         = errors.New("resource: id must not be empty")
	ErrInvalidCapacity = errors.New("resource: capacity must be > 0")
	ErrInvalidCharge   = errors.New("resource: state of charge must be in [0,1]")
	ErrInvalidMaxRate  = errors.New("resource: max rate must be > 0")
	ErrInvalidReserve  = errors.New("resource: reserve fraction must be in [0,1)")
)

// Options configures optional Resource parameters.
type Options struct {
	// ReserveFraction is the state-of-charge floor. Defaults to
	// DefaultReserveFraction.
	ReserveFraction float64
}

// Resource is a capacity-bounded actuation target. Fields are unexported so
// the reserve-floor invariant can only be affected through Discharge, which
// is reserved for the owning dispatch agent; all other access is read-only.
type Resource struct {
	id              string
	capacityUnits   float64
	stateOfCharge   float64
	maxRate         float64
	reserveFraction float64
}

// New validates and constructs a Resource.
func New(id string, capacityUnits, stateOfCharge, maxRate float64, optFns ...func(o *Options)) (*Resource, error) {
	opts := Options{ReserveFraction: DefaultReserveFraction}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch {
	case id == "":
		return nil, ErrEmptyID
	case capacityUnits <= 0:
		return nil, fmt.Errorf("%w, got %v", ErrInvalidCapacity, capacityUnits)
	case stateOfCharge < 0 || stateOfCharge > 1:
		return nil, fmt.Errorf("%w, got %v", ErrInvalidCharge, stateOfCharge)
	case maxRate <= 0:
		return nil, fmt.Errorf("%w, got %v", ErrInvalidMaxRate, maxRate)
	case opts.ReserveFraction < 0 || opts.ReserveFraction >= 1:
		return nil, fmt.Errorf("%w, got %v", ErrInvalidReserve, opts.ReserveFraction)
	}

	return &Resource{
		id:              id,
		capacityUnits:   capacityUnits,
		stateOfCharge:   stateOfCharge,
		maxRate:         maxRate,
		reserveFraction: opts.ReserveFraction,
	}, nil
}

// ID returns the resource identifier.
func (r *Resource) ID() string { return r.id }

// CapacityUnits returns the total capacity.
func (r *Resource) CapacityUnits() float64 { return r.capacityUnits }

// StateOfCharge returns the current state of charge in [0,1].
func (r *Resource) StateOfCharge() float64 { return r.stateOfCharge }

// MaxRate returns the maximum units deliverable in one dispatch.
func (r *Resource) MaxRate() float64 { return r.maxRate }

// ReserveFraction returns the configured state-of-charge floor.
func (r *Resource) ReserveFraction() float64 { return r.reserveFraction }

// AvailableUnits returns the energy currently available for discharge.
func (r *Resource) AvailableUnits() float64 { return r.capacityUnits * r.stateOfCharge }

// CanDischarge reports whether the state of charge is above the reserve floor.
func (r *Resource) CanDischarge() bool { return r.stateOfCharge > r.reserveFraction }

// Discharge delivers up to requested units and returns the amount actually
// delivered, clamping the state of charge so it never drops below the reserve
// fraction. It returns 0 without state change when the resource cannot
// discharge. Only the owning dispatch agent may call Discharge; the model
// relies on that single-writer discipline instead of locking.
func (r *Resource) Discharge(requested float64) float64 {
	if requested <= 0 || !r.CanDischarge() {
		return 0
	}

	actual := math.Min(requested, r.AvailableUnits())
	soc := r.stateOfCharge - actual/r.capacityUnits
	if soc < r.reserveFraction {
		soc = r.reserveFraction
	}
	r.stateOfCharge = soc
	return actual
}
