package bridge

import "time"

const (
	// DefaultStopTimeout bounds how long Stop waits for the monitor.
	DefaultStopTimeout = 2 * time.Second
	// DefaultMonitorInterval is the monitor's dequeue timeout.
	DefaultMonitorInterval = 250 * time.Millisecond

	maxMonitorInterval = 500 * time.Millisecond
)

type config struct {
	stopTimeout      time.Duration
	monitorInterval  time.Duration
	commandCapacity  int
	commandPolicy    OverflowPolicy
	responseCapacity int
	responsePolicy   OverflowPolicy
}

// Option configures a Bridge.
type Option func(*config)

// WithStopTimeout sets how long Stop waits for the monitor to exit.
func WithStopTimeout(d time.Duration) Option {
	return func(c *config) { c.stopTimeout = d }
}

// WithMonitorInterval sets the monitor's dequeue timeout. Values above 500ms
// are clamped so shutdown stays responsive.
func WithMonitorInterval(d time.Duration) Option {
	return func(c *config) { c.monitorInterval = d }
}

// WithCommandCapacity bounds the command queue. capacity <= 0 keeps it unbounded.
func WithCommandCapacity(capacity int, policy OverflowPolicy) Option {
	return func(c *config) {
		c.commandCapacity = capacity
		c.commandPolicy = policy
	}
}

// WithResponseCapacity bounds the response queue. capacity <= 0 keeps it unbounded.
func WithResponseCapacity(capacity int, policy OverflowPolicy) Option {
	return func(c *config) {
		c.responseCapacity = capacity
		c.responsePolicy = policy
	}
}

func buildConfig(opts []Option) config {
	cfg := config{
		stopTimeout:     DefaultStopTimeout,
		monitorInterval: DefaultMonitorInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.stopTimeout <= 0 {
		cfg.stopTimeout = DefaultStopTimeout
	}
	if cfg.monitorInterval <= 0 {
		cfg.monitorInterval = DefaultMonitorInterval
	}
	if cfg.monitorInterval > maxMonitorInterval {
		cfg.monitorInterval = maxMonitorInterval
	}
	return cfg
}
