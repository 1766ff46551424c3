package bridge

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// monitor drains the response queue until quit is closed. It does not
// start draining until prev, the previous run's done channel, is closed,
// and it never closes done before prev.
func (b *Bridge) monitor(prev <-chan struct{}, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if prev != nil {
		select {
		case <-prev:
		case <-quit:
			<-prev
			return
		}
	}

	b.monitors.Add(1)
	defer b.monitors.Add(-1)

	slog.Debug("bridge: monitor running")
	for {
		select {
		case <-quit:
			slog.Debug("bridge: monitor exiting")
			return
		default:
		}
		b.turn()
	}
}

// turn runs one monitor iteration. Unexpected panics are logged and the
// monitor carries on.
func (b *Bridge) turn() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bridge: monitor iteration failed", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	d, ok := b.responses.Pop(b.monitorInterval)
	if !ok {
		return
	}
	b.dispatch(d)
}

// dispatch hands d to every subscriber registered at this moment, in order.
func (b *Bridge) dispatch(d Delivery) {
	for i, sub := range b.snapshotSubscribers() {
		if err := safeCall(sub, d); err != nil {
			b.faults.Add(1)
			b.metrics.subscriberFaults.Inc()
			slog.Error("bridge: subscriber failed",
				"subscriber", i, "request_id", d.RequestID(), "err", err)
		}
	}
	b.metrics.delivered.Inc()
}

func safeCall(sub Subscriber, d Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanic, r)
		}
	}()
	return sub(d)
}
