package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentgrid/envelope"
	"github.com/hupe1980/agentgrid/logging"
)

// Handler consumes envelopes delivered on a subscribed topic. Handlers run
// synchronously on the publisher's goroutine and must not block indefinitely.
// A handler may publish to other topics (this is how the coordination cascade
// runs) but must not publish to the topic it is currently handling.
type Handler func(env envelope.Envelope)

// Observer receives a callback for every published envelope. Used to hook in
// metrics without coupling the bus to a collector implementation.
type Observer interface {
	EnvelopePublished(topic string, kind envelope.Kind)
}

// Options configures a Bus instance.
type Options struct {
	// Logger receives handler failure reports and delivery traces.
	// Defaults to NoOpLogger.
	Logger logging.Logger

	// Observer is notified after every publish. Nil disables observation.
	Observer Observer

	// Now supplies the clock used for throughput accounting.
	// Defaults to time.Now.
	Now func() time.Time
}

// topicState bundles a topic's history and subscriber list under one mutex so
// that history append and subscriber delivery form a single FIFO-preserving
// critical section per topic.
type topicState struct {
	mu          sync.Mutex
	history     []envelope.Envelope
	subscribers []Handler
}

// Bus is an in-memory topic router safe for concurrent publishers and
// subscribers. It is the sole shared mutable structure of a coordination
// domain besides each agent's resource.
type Bus struct {
	logger   logging.Logger
	observer Observer
	now      func() time.Time

	mu     sync.RWMutex
	topics map[string]*topicState

	published atomic.Int64
	start     time.Time
}

// New constructs an empty Bus.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bus{
		logger:   opts.Logger,
		observer: opts.Observer,
		now:      opts.Now,
		topics:   make(map[string]*topicState),
		start:    opts.Now(),
	}
}

// topic returns the state for a topic, creating it on first use.
func (b *Bus) topic(name string) *topicState {
	b.mu.RLock()
	ts, ok := b.topics[name]
	b.mu.RUnlock()
	if ok {
		return ts
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if ts, ok = b.topics[name]; ok {
		return ts
	}
	ts = &topicState{}
	b.topics[name] = ts
	return ts
}

// Publish appends the envelope to the topic's history and invokes every
// current subscriber with it. Publishes on the same topic are delivered in
// FIFO order even under concurrent publishers; handler panics are logged and
// do not prevent delivery to the remaining subscribers.
func (b *Bus) Publish(topic string, env envelope.Envelope) {
	ts := b.topic(topic)

	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.history = append(ts.history, env)
	b.published.Add(1)

	if b.observer != nil {
		b.observer.EnvelopePublished(topic, env.Kind)
	}
	b.logger.Debug("bus delivered envelope", "topic", topic, "envelope_id", env.ID, "kind", string(env.Kind))

	for _, h := range ts.subscribers {
		b.invoke(topic, h, env)
	}
}

// invoke runs a single handler with panic isolation.
func (b *Bus) invoke(topic string, h Handler, env envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus subscriber panicked", "topic", topic, "envelope_id", env.ID, "panic", r)
		}
	}()
	h(env)
}

// Subscribe registers a handler for all future publishes on the topic.
// Envelopes already in the topic's history are not replayed.
func (b *Bus) Subscribe(topic string, h Handler) {
	ts := b.topic(topic)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.subscribers = append(ts.subscribers, h)
}

// History returns a copy of the envelopes published on a topic so far.
func (b *Bus) History(topic string) []envelope.Envelope {
	ts := b.topic(topic)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]envelope.Envelope, len(ts.history))
	copy(out, ts.history)
	return out
}

// PublishedCount returns the total number of envelopes published across all
// topics since construction.
func (b *Bus) PublishedCount() int64 { return b.published.Load() }

// Throughput returns envelopes per second since bus creation.
func (b *Bus) Throughput() float64 {
	elapsed := b.now().Sub(b.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(b.published.Load()) / elapsed
}
