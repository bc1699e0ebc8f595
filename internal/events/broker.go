// Package events fans movie change events out to subscribers.
package events

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/movies-api/internal/model"
)

// DefaultBufferSize is the subscription buffer used when none is given.
const DefaultBufferSize = 16

var eventsDropped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "movie_events_dropped_total",
		Help: "Movie events dropped because a subscriber was not keeping up",
	},
)

// Publisher accepts movie change events.
type Publisher interface {
	Publish(event model.MovieEvent)
}

// Broker delivers every published event to all current subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]chan model.MovieEvent
	nextID uint64
	closed bool
}

// NewBroker creates a new Broker instance.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[uint64]chan model.MovieEvent),
	}
}

// Subscribe registers a subscriber. The returned channel is closed when the
// cancel function is called or the broker is closed.
func (b *Broker) Subscribe(buffer int) (<-chan model.MovieEvent, func()) {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	ch := make(chan model.MovieEvent, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() { b.unsubscribe(id) })
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber with room in its buffer.
func (b *Broker) Publish(event model.MovieEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			eventsDropped.Inc()
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are dropped silently.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}
