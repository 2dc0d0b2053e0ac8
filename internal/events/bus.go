// Package events carries "something changed" signals from the row store to
// the graph cache and other interested parties.
package events

import "sync"

// Kind classifies a change. Subscribers of the graph cache treat every kind the same.
type Kind string

const (
	EntityCreated      Kind = "created"
	EntityChanged      Kind = "changed"
	EntityDeleted      Kind = "deleted"
	EntityChangeSynced Kind = "change-synced"
	EntityDeleteSynced Kind = "delete-synced"
)

// Event is a single change notification. EntityName and EntityID are
// informational; they may be empty for coarse signals such as file watcher hits.
type Event struct {
	Kind       Kind   `json:"kind"`
	EntityName string `json:"entity_name,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
}

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous fan-out publisher. Handlers run on the publisher's
// goroutine, in subscription order, before Publish returns.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers ev to every current subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}
