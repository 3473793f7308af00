// Package notify fans catalog listing snapshots out to subscribers.
// Delivery is fire-and-forget: no acknowledgment, no retry, and a subscriber
// that is not draining its channel misses snapshots rather than blocking the
// publisher.
package notify

import (
	"sync"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

// Hub broadcasts product listing snapshots to all current subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan []product.Product]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan []product.Product]struct{})}
}

// Publish sends the snapshot to every subscriber. Sends never block: a
// subscriber whose buffer is full skips this snapshot and catches up with
// the next one.
func (h *Hub) Publish(products []product.Product) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- products:
		default:
		}
	}
}

// Subscribe registers a new snapshot channel. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan []product.Product, func()) {
	ch := make(chan []product.Product, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Len returns the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
