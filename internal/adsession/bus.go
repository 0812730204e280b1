package adsession

import "sync"

// EventHandler receives session events.
type EventHandler func(Event)

// Bus fans session events out to subscribers. Events are delivered in publish
// order with no reordering or batching. Handlers run on the publishing
// goroutine and must not call back into the Session synchronously.
type Bus struct {
	mu       sync.Mutex
	handlers []EventHandler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler. Handlers are invoked in subscription order.
func (b *Bus) Subscribe(h EventHandler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
