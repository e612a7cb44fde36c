package envelope

// Topic names form the wire contract between the coordination core and its
// collaborators. Each envelope kind has a conventional home topic; the bus
// itself is agnostic and callers may override these in component options.
const (
	// TopicSignal carries coordinator broadcasts opening a bid window.
	TopicSignal = "grid/signal"
	// TopicBids carries bidder offers back to the coordinator.
	TopicBids = "grid/bids"
	// TopicContracts carries awarded contracts.
	TopicContracts = "grid/contracts"
	// TopicDispatch carries directives to dispatch agents.
	TopicDispatch = "grid/dispatch"
	// TopicAcks carries dispatch acknowledgments.
	TopicAcks = "grid/acks"
)

// Topic returns the conventional topic for a kind, or the empty string for an
// unknown kind.
func (k Kind) Topic() string {
	switch k {
	case KindSignal:
		return TopicSignal
	case KindBid:
		return TopicBids
	case KindContract:
		return TopicContracts
	case KindDirective:
		return TopicDispatch
	case KindAck:
		return TopicAcks
	default:
		return ""
	}
}
