// Package bridge is the in-process hub between the web front-end and the
// desktop backend.
//
// Web handlers Submit commands and receive responses through subscriber
// callbacks; the backend pulls commands with PollCommand and answers with
// PublishResponse. A monitor goroutine drains the response queue and fans
// every response out to all subscribers in registration order.
package bridge

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Subscriber receives every delivered response. A returned error or a panic
// is logged and counted; it never stops delivery to other subscribers.
type Subscriber func(d Delivery) error

// Backend identifies the component consuming commands. The slot is
// informational: the bridge never calls into the backend.
type Backend interface {
	Name() string
}

// Bridge holds the command and response queues, the subscriber list and the
// monitor lifecycle. Use Default for the process-wide instance.
type Bridge struct {
	commands  *Queue[Command]
	responses *Queue[Delivery]
	ids       idGenerator
	metrics   *metrics

	stopTimeout     time.Duration
	monitorInterval time.Duration

	mu          sync.Mutex
	backend     Backend
	subscribers []Subscriber
	running     bool
	quit        chan struct{} // closed by Stop to end the current monitor
	done        chan struct{} // closed by the current monitor on exit

	faults   atomic.Uint64
	monitors atomic.Int32 // monitors currently draining responses
}

var (
	defaultOnce   sync.Once
	defaultBridge *Bridge
)

// Init builds the process-wide bridge on first call. Later calls return the
// same instance and ignore opts.
func Init(opts ...Option) *Bridge {
	defaultOnce.Do(func() {
		defaultBridge = New(opts...)
		slog.Info("bridge: initialized")
	})
	return defaultBridge
}

// Default returns the process-wide bridge, creating it with defaults if
// Init has not run yet.
func Default() *Bridge { return Init() }

// New creates an independent Bridge. Most callers want Default.
func New(opts ...Option) *Bridge {
	cfg := buildConfig(opts)
	b := &Bridge{
		commands:        NewQueue[Command](cfg.commandCapacity, cfg.commandPolicy),
		responses:       NewQueue[Delivery](cfg.responseCapacity, cfg.responsePolicy),
		stopTimeout:     cfg.stopTimeout,
		monitorInterval: cfg.monitorInterval,
	}
	b.metrics = newMetrics(b)
	return b
}

// Start launches the response monitor. Calling Start on a running bridge is a no-op.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return
	}
	b.running = true
	// A monitor left behind by a timed-out Stop may still be dispatching.
	// The new one waits for it so only one goroutine drains responses.
	prev := b.done
	b.quit = make(chan struct{})
	b.done = make(chan struct{})

	go b.monitor(prev, b.quit, b.done)

	slog.Info("bridge: started", "monitor_interval", b.monitorInterval)
}

// Stop signals the monitor to exit and waits up to the stop timeout for it.
// Queued envelopes are kept; the bridge may be started again.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.quit)
	done := b.done
	b.mu.Unlock()

	timer := time.NewTimer(b.stopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		slog.Info("bridge: stopped")
	case <-timer.C:
		slog.Warn("bridge: monitor did not exit in time", "timeout", b.stopTimeout)
	}
}

// Running reports whether the monitor is active.
func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// RegisterBackend records the backend, replacing any previous one.
func (b *Bridge) RegisterBackend(backend Backend) {
	b.mu.Lock()
	b.backend = backend
	b.mu.Unlock()

	name := ""
	if backend != nil {
		name = backend.Name()
	}
	slog.Info("bridge: backend registered", "backend", name)
}

// RegisterSubscriber appends sub to the subscriber list. Registering the
// same callback twice yields two deliveries per response.
func (b *Bridge) RegisterSubscriber(sub Subscriber) error {
	if sub == nil {
		return ErrNilSubscriber
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	n := len(b.subscribers)
	b.mu.Unlock()

	slog.Info("bridge: subscriber registered", "total", n)
	return nil
}

// Submit enqueues a command from the web front-end and returns its request id.
func (b *Bridge) Submit(command string, metadata map[string]any) (string, error) {
	return b.SubmitFrom(SourceWebGUI, command, metadata)
}

// SubmitFrom enqueues a command tagged with source. A non-empty
// metadata["request_id"] is used as the correlation id; otherwise one is
// generated. It never blocks and fails only when a bounded queue rejects.
func (b *Bridge) SubmitFrom(source Source, command string, metadata map[string]any) (string, error) {
	if source == "" {
		source = SourceWebGUI
	}
	now := time.Now()

	id := requestIDFrom(metadata)
	if id == "" {
		id = b.ids.next(source, now)
	}

	cmd := newCommand(id, command, source, now, metadata)
	if err := b.commands.Push(cmd); err != nil {
		b.metrics.rejected.Inc()
		return "", fmt.Errorf("submit %s: %w", id, err)
	}
	b.metrics.submitted.Inc()

	slog.Debug("bridge: command queued", "request_id", id, "source", source, "command", cmd.Preview())
	return id, nil
}

// PollCommand removes the oldest pending command, waiting up to timeout.
// It returns false when nothing arrived in time.
func (b *Bridge) PollCommand(timeout time.Duration) (Command, bool) {
	return b.commands.Pop(timeout)
}

// PublishResponse stamps r with the current time and queues it for fan-out.
// r is copied; later changes by the caller are not observed.
func (b *Bridge) PublishResponse(r Response) error {
	if err := r.validate(); err != nil {
		return err
	}

	d := newDelivery(r, time.Now())
	if err := b.responses.Push(d); err != nil {
		return fmt.Errorf("publish %s: %w", d.RequestID(), err)
	}
	b.metrics.published.Inc()

	slog.Debug("bridge: response queued", "request_id", d.RequestID(), "status", d.Status())
	return nil
}

// Collectors returns the bridge's prometheus collectors for registration.
func (b *Bridge) Collectors() []prometheus.Collector {
	return b.metrics.collectors()
}

func (b *Bridge) subscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// snapshotSubscribers copies the list so dispatch never holds the lock.
func (b *Bridge) snapshotSubscribers() []Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	return subs
}
