package bridge

import (
	"sync"
	"sync/atomic"
	"time"
)

// OverflowPolicy decides what a bounded Queue does when it is full.
type OverflowPolicy int

const (
	// OverflowReject fails the push with ErrQueueFull.
	OverflowReject OverflowPolicy = iota
	// OverflowDropOldest discards the head to make room for the new item.
	OverflowDropOldest
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowReject:
		return "reject"
	case OverflowDropOldest:
		return "drop_oldest"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy maps a config value to a policy. Empty means reject.
func ParseOverflowPolicy(s string) (OverflowPolicy, bool) {
	switch s {
	case "", "reject":
		return OverflowReject, true
	case "drop_oldest", "drop-oldest":
		return OverflowDropOldest, true
	default:
		return OverflowReject, false
	}
}

// Queue is a FIFO buffer with non-blocking Push and a Pop that waits up to a
// timeout. It is safe for any number of producers and consumers.
//
// A capacity of zero or less makes the queue unbounded. Insertion order is
// always removal order; the overflow policy never reorders items.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	ready    chan struct{} // holds one token while items may be non-empty
	capacity int
	policy   OverflowPolicy
	dropped  atomic.Uint64
}

// NewQueue creates a Queue. capacity <= 0 means unbounded.
func NewQueue[T any](capacity int, policy OverflowPolicy) *Queue[T] {
	return &Queue[T]{
		ready:    make(chan struct{}, 1),
		capacity: capacity,
		policy:   policy,
	}
}

// Push appends v. It never blocks; on a full bounded queue it either returns
// ErrQueueFull or drops the oldest item, depending on the policy.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.capacity > 0 && len(q.items) >= q.capacity {
		if q.policy != OverflowDropOldest {
			q.mu.Unlock()
			return ErrQueueFull
		}
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		q.dropped.Add(1)
	}
	q.items = append(q.items, v)
	q.notifyLocked()
	q.mu.Unlock()
	return nil
}

// Pop removes and returns the head, waiting up to timeout for one to appear.
// A timeout of zero or less checks once and returns immediately.
func (q *Queue[T]) Pop(timeout time.Duration) (T, bool) {
	if v, ok := q.tryPop(); ok || timeout <= 0 {
		return v, ok
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.ready:
			if v, ok := q.tryPop(); ok {
				return v, true
			}
		case <-timer.C:
			return q.tryPop()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the configured capacity; zero means unbounded.
func (q *Queue[T]) Cap() int {
	if q.capacity < 0 {
		return 0
	}
	return q.capacity
}

// Dropped returns how many items the drop-oldest policy has discarded.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }

func (q *Queue[T]) tryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	} else {
		// Another consumer may be parked; pass the token on.
		q.notifyLocked()
	}
	return v, true
}

func (q *Queue[T]) notifyLocked() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
