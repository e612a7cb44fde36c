package envelope

import (
	"errors"
	"fmt"
	"time"
)

// Structural validation errors raised at construction time. These are the
// only errors in the core that cross component boundaries as faults; an
// envelope that fails construction never reaches the bus.
var (
	ErrEmptySender  = errors.New("envelope: sender identity must not be empty")
	ErrNilPayload   = errors.New("envelope: payload must not be nil")
	ErrKindMismatch = errors.New("envelope: payload does not match declared kind")
	ErrInvalidField = errors.New("envelope: invalid payload field")
	ErrMissingField = errors.New("envelope: missing required payload field")
	ErrUnknownKind  = errors.New("envelope: unknown kind")
)

// Payload is the tagged-variant interface implemented by the five payload
// record types. PayloadKind reports the Kind a payload belongs to; validate
// enforces the record's structural invariants before the envelope is built.
type Payload interface {
	PayloadKind() Kind
	validate() error
}

// Signal is broadcast by the coordinator to open a bid-collection window.
// Window is the bounded duration bidders have to respond; the coordinator
// proceeds when it elapses regardless of how many bids arrived.
type Signal struct {
	RequiredUnits float64       `json:"required_units"`
	PricePerUnit  float64       `json:"price_per_unit"`
	Window        time.Duration `json:"window_ns"`
}

// PayloadKind implements Payload.
func (Signal) PayloadKind() Kind { return KindSignal }

func (s Signal) validate() error {
	if s.RequiredUnits <= 0 {
		return fmt.Errorf("%w: signal required_units must be > 0, got %v", ErrInvalidField, s.RequiredUnits)
	}
	if s.PricePerUnit <= 0 {
		return fmt.Errorf("%w: signal price_per_unit must be > 0, got %v", ErrInvalidField, s.PricePerUnit)
	}
	if s.Window <= 0 {
		return fmt.Errorf("%w: signal window must be > 0, got %v", ErrInvalidField, s.Window)
	}
	return nil
}

// Bid is a bidder's immutable offer in response to a Signal. OfferedUnits is
// already capped by the resource's availability and maximum rate when the
// bidder constructs it.
type Bid struct {
	ResourceID   string  `json:"resource_id"`
	OfferedUnits float64 `json:"offered_units"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// PayloadKind implements Payload.
func (Bid) PayloadKind() Kind { return KindBid }

func (b Bid) validate() error {
	if b.ResourceID == "" {
		return fmt.Errorf("%w: bid resource_id", ErrMissingField)
	}
	if b.OfferedUnits <= 0 {
		return fmt.Errorf("%w: bid offered_units must be > 0, got %v", ErrInvalidField, b.OfferedUnits)
	}
	if b.PricePerUnit <= 0 {
		return fmt.Errorf("%w: bid price_per_unit must be > 0, got %v", ErrInvalidField, b.PricePerUnit)
	}
	return nil
}

// Contract is created exclusively by the coordinator during allocation, one
// per awarded bid. AwardedUnits never exceeds the bid's OfferedUnits.
type Contract struct {
	ContractID   string  `json:"contract_id"`
	BidderID     string  `json:"bidder_id"`
	ResourceID   string  `json:"resource_id"`
	AwardedUnits float64 `json:"awarded_units"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// PayloadKind implements Payload.
func (Contract) PayloadKind() Kind { return KindContract }

func (c Contract) validate() error {
	switch {
	case c.ContractID == "":
		return fmt.Errorf("%w: contract contract_id", ErrMissingField)
	case c.BidderID == "":
		return fmt.Errorf("%w: contract bidder_id", ErrMissingField)
	case c.ResourceID == "":
		return fmt.Errorf("%w: contract resource_id", ErrMissingField)
	}
	if c.AwardedUnits <= 0 {
		return fmt.Errorf("%w: contract awarded_units must be > 0, got %v", ErrInvalidField, c.AwardedUnits)
	}
	if c.PricePerUnit <= 0 {
		return fmt.Errorf("%w: contract price_per_unit must be > 0, got %v", ErrInvalidField, c.PricePerUnit)
	}
	return nil
}

// Directive instructs the dispatch agent owning ResourceID to actuate the
// awarded units of a contract. It is evaluated at most meaningfully once per
// contract; replays are silently refused by the dispatch gate.
type Directive struct {
	ContractID     string  `json:"contract_id"`
	ResourceID     string  `json:"resource_id"`
	RequestedUnits float64 `json:"requested_units"`
}

// PayloadKind implements Payload.
func (Directive) PayloadKind() Kind { return KindDirective }

func (d Directive) validate() error {
	switch {
	case d.ContractID == "":
		return fmt.Errorf("%w: directive contract_id", ErrMissingField)
	case d.ResourceID == "":
		return fmt.Errorf("%w: directive resource_id", ErrMissingField)
	}
	if d.RequestedUnits <= 0 {
		return fmt.Errorf("%w: directive requested_units must be > 0, got %v", ErrInvalidField, d.RequestedUnits)
	}
	return nil
}

// Ack is published only on a successful, policy-compliant dispatch. Its
// presence on the bus is the sole externally observable proof of execution.
type Ack struct {
	ContractID       string    `json:"contract_id"`
	ResourceID       string    `json:"resource_id"`
	ActualUnits      float64   `json:"actual_units"`
	NewStateOfCharge float64   `json:"new_state_of_charge"`
	Timestamp        time.Time `json:"timestamp"`
}

// PayloadKind implements Payload.
func (Ack) PayloadKind() Kind { return KindAck }

func (a Ack) validate() error {
	switch {
	case a.ContractID == "":
		return fmt.Errorf("%w: ack contract_id", ErrMissingField)
	case a.ResourceID == "":
		return fmt.Errorf("%w: ack resource_id", ErrMissingField)
	}
	if a.ActualUnits <= 0 {
		return fmt.Errorf("%w: ack actual_units must be > 0, got %v", ErrInvalidField, a.ActualUnits)
	}
	if a.NewStateOfCharge < 0 || a.NewStateOfCharge > 1 {
		return fmt.Errorf("%w: ack new_state_of_charge must be in [0,1], got %v", ErrInvalidField, a.NewStateOfCharge)
	}
	if a.Timestamp.IsZero() {
		return fmt.Errorf("%w: ack timestamp", ErrMissingField)
	}
	return nil
}
