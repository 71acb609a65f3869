package motion

import (
	"context"
	"sync"
	"sync/atomic"
)

// Hub fans published readings out to any number of subscribers. A slow
// subscriber loses readings instead of stalling the publisher.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan Reading]struct{}
	buffer  int
	dropped atomic.Int64
}

// NewHub creates a hub whose subscribers each buffer up to buffer readings.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[chan Reading]struct{}), buffer: buffer}
}

// Publish delivers r to every current subscriber without blocking.
func (h *Hub) Publish(r Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- r:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe implements Source. It returns ctx.Err() once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, fn Handler) error {
	ch := make(chan Reading, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-ch:
			fn(r)
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped for full subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
