// Package dispatch fans events out to external consumers. Each consumer
// gets its own bounded channel and receives every event in publish
// order; a consumer that stops draining eventually blocks the pipeline
// rather than silently losing events, so delivery is at-least-once and
// consumers dedupe on sequence number.
package dispatch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/draftops/draftops/internal/events"
	"github.com/draftops/draftops/internal/telemetry"
)

// DefaultBuffer is the per-consumer channel capacity.
const DefaultBuffer = 64

type consumer struct {
	id   string
	name string
	ch   chan events.Event
}

// Dispatcher bridges the internal event bus to registered consumers.
type Dispatcher struct {
	mu        sync.RWMutex
	consumers []*consumer
	buffer    int
	closed    bool
}

// NewDispatcher wires a dispatcher onto the bus; every event published
// after this call is delivered to all registered consumers.
func NewDispatcher(bus *events.Bus, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	d := &Dispatcher{buffer: buffer}
	bus.SubscribeAll(d.deliver)
	return d
}

// Register adds a named consumer and returns its id and receive channel.
// The channel is closed on Unregister or Close.
func (d *Dispatcher) Register(name string) (string, <-chan events.Event) {
	c := &consumer{
		id:   uuid.NewString(),
		name: name,
		ch:   make(chan events.Event, d.buffer),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(c.ch)
		return c.id, c.ch
	}
	d.consumers = append(d.consumers, c)
	telemetry.Metrics.DispatchConsumers.Inc()
	telemetry.Infof("dispatch: consumer %q registered (%s)", name, c.id)
	return c.id, c.ch
}

// Unregister removes a consumer and closes its channel. Pending events
// already in the channel remain readable until it drains.
func (d *Dispatcher) Unregister(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range d.consumers {
		if c.id == id {
			d.consumers = append(d.consumers[:i], d.consumers[i+1:]...)
			close(c.ch)
			telemetry.Metrics.DispatchConsumers.Dec()
			telemetry.Infof("dispatch: consumer %q unregistered", c.name)
			return
		}
	}
}

// Close unregisters every consumer. Register afterwards returns a
// closed channel.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, c := range d.consumers {
		close(c.ch)
		telemetry.Metrics.DispatchConsumers.Dec()
	}
	d.consumers = nil
}

// Consumers returns the number of registered consumers.
func (d *Dispatcher) Consumers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.consumers)
}

// deliver pushes one event to every consumer in registration order. The
// read lock is held for the whole delivery pass, so Register/Unregister
// serialize against it and a channel is never closed mid-send.
func (d *Dispatcher) deliver(e events.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.consumers {
		if len(c.ch) == cap(c.ch) {
			telemetry.Metrics.DispatchQueueHigh.Inc()
			telemetry.Warnf("dispatch: consumer %q queue full, blocking delivery", c.name)
		}
		c.ch <- e
	}
	return nil
}
