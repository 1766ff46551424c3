package bridge

import "github.com/prometheus/client_golang/prometheus"

// metrics are per-bridge collectors; the owner registers them via Collectors.
type metrics struct {
	submitted        prometheus.Counter
	rejected         prometheus.Counter
	published        prometheus.Counter
	delivered        prometheus.Counter
	subscriberFaults prometheus.Counter
	pendingCommands  prometheus.GaugeFunc
	pendingResponses prometheus.GaugeFunc
	subscribers      prometheus.GaugeFunc
}

func newMetrics(b *Bridge) *metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vatsal",
			Subsystem: "bridge",
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string, f func() float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vatsal",
			Subsystem: "bridge",
			Name:      name,
			Help:      help,
		}, f)
	}

	return &metrics{
		submitted:        counter("commands_submitted_total", "Commands accepted onto the command queue."),
		rejected:         counter("commands_rejected_total", "Commands refused by a full bounded command queue."),
		published:        counter("responses_published_total", "Responses accepted onto the response queue."),
		delivered:        counter("responses_delivered_total", "Responses fanned out by the monitor."),
		subscriberFaults: counter("subscriber_faults_total", "Subscriber callbacks that returned an error or panicked."),
		pendingCommands: gauge("pending_commands", "Commands waiting for the backend.",
			func() float64 { return float64(b.commands.Len()) }),
		pendingResponses: gauge("pending_responses", "Responses waiting for fan-out.",
			func() float64 { return float64(b.responses.Len()) }),
		subscribers: gauge("subscribers", "Registered subscriber callbacks.",
			func() float64 { return float64(b.subscriberCount()) }),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.submitted,
		m.rejected,
		m.published,
		m.delivered,
		m.subscriberFaults,
		m.pendingCommands,
		m.pendingResponses,
		m.subscribers,
	}
}
