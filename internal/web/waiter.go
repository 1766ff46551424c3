package web

import (
	"errors"
	"sync"

	"github.com/vatsalai/vatsal/internal/bridge"
)

// ErrAlreadyWaiting is returned when a request id already has a waiter.
var ErrAlreadyWaiting = errors.New("web: request id already has a waiter")

// Waiter routes deliveries to callers blocked on a specific request id.
// One Waiter is registered as a single bridge subscriber.
type Waiter struct {
	mu      sync.Mutex
	pending map[string]chan bridge.Delivery
}

func NewWaiter() *Waiter {
	return &Waiter{pending: make(map[string]chan bridge.Delivery)}
}

// Expect registers interest in id. The returned channel receives at most one
// delivery. cancel must be called when the caller stops waiting.
func (w *Waiter) Expect(id string) (<-chan bridge.Delivery, func(), error) {
	ch := make(chan bridge.Delivery, 1)

	w.mu.Lock()
	if _, exists := w.pending[id]; exists {
		w.mu.Unlock()
		return nil, nil, ErrAlreadyWaiting
	}
	w.pending[id] = ch
	w.mu.Unlock()

	cancel := func() {
		w.mu.Lock()
		if w.pending[id] == ch {
			delete(w.pending, id)
		}
		w.mu.Unlock()
	}
	return ch, cancel, nil
}

// Deliver is the bridge subscriber. Deliveries nobody waits for are ignored.
func (w *Waiter) Deliver(d bridge.Delivery) error {
	id := d.RequestID()
	if id == "" {
		return nil
	}

	w.mu.Lock()
	ch, ok := w.pending[id]
	if ok {
		delete(w.pending, id)
	}
	w.mu.Unlock()

	if ok {
		ch <- d
	}
	return nil
}

// Pending returns the number of outstanding waiters.
func (w *Waiter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
