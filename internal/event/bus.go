package event

import (
	"sync"

	"cronwatch/pkg/logger"
)

// Bus is an in-process typed publish/subscribe distributor of execution
// lifecycle events. Delivery is best-effort: a full subscriber buffer drops
// the event for that subscriber rather than blocking the publisher, and the
// reconciliation roller restores any counters that drift as a result.
type Bus struct {
	log        *logger.Logger
	bufferSize int

	mu     sync.RWMutex
	closed bool
	subs   map[Kind][]chan Event
}

func NewBus(bufferSize int, log *logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		log:        log,
		bufferSize: bufferSize,
		subs:       make(map[Kind][]chan Event),
	}
}

// Subscribe returns a receive-only channel delivering events of the given kind
// in publish order. After Close the returned channel is already closed.
func (b *Bus) Subscribe(kind Kind) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[kind] = append(b.subs[kind], ch)
	return ch
}

// Publish delivers the event to every current subscriber of its kind without
// ever blocking the caller.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[e.Kind] {
		select {
		case ch <- e:
		default:
			b.log.Warn("event bus subscriber buffer full, dropping event",
				logger.StringField("kind", string(e.Kind)),
				logger.IntField("task_id", int(e.Task.ID)),
			)
		}
	}
}

// Close stops accepting subscriptions and publishes, waits out in-flight
// deliveries, and closes all subscriber channels so consumers terminate.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	b.subs = nil
}
