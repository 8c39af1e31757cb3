// Package notify carries in-process change notifications between the
// repositories and the components that react to data changes, such as the
// auto-sync scheduler and the websocket hub.
package notify

import "sync"

// Event kinds published by the repositories and the sync engine.
const (
	EventMeals    = "meals"
	EventFamily   = "family"
	EventImported = "imported"
)

// Event describes a single data change.
type Event struct {
	Kind string
}

// Broadcaster fans events out to subscribers. Handlers run synchronously on
// the publishing goroutine, so they must not block.
type Broadcaster struct {
	mu       sync.RWMutex
	handlers []func(Event)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a handler for all future events.
func (b *Broadcaster) Subscribe(handler func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish delivers the event to every subscriber.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]func(Event), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
