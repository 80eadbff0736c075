// Package events carries data-changed notifications between components.
// The in-process bus is deliberately best effort: delivery is at most once,
// publishing never blocks and a slow subscriber cannot stall a write path.
// Listeners that need the new state re-read it from the engine.
package events

import (
	"sync"
	"time"
)

// DataChanged announces that records of one entity collection were mutated.
type DataChanged struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	RecordID  string    `json:"record_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionRemoved  = "removed"
	ActionImported = "imported"
)

type Handler func(DataChanged)

// Bus fans DataChanged events out to subscribers.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish delivers the event to every current subscriber, each on its own
// goroutine. Fire and forget: handler errors and panics stay with the handler.
func (b *Bus) Publish(ev DataChanged) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		go h(ev)
	}
}
