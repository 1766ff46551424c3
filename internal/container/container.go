// Package container wires vatsal services using go.uber.org/dig.
package container

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"github.com/vatsalai/vatsal/internal/bridge"
	"github.com/vatsalai/vatsal/internal/config"
	"github.com/vatsalai/vatsal/internal/desktop"
	"github.com/vatsalai/vatsal/internal/notify"
	"github.com/vatsalai/vatsal/internal/report"
	"github.com/vatsalai/vatsal/internal/web"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	bridge   *bridge.Bridge
	runner   *desktop.Runner
	server   *web.Server
	reporter *report.Service
	notifier *notify.SlackNotifier
	metrics  *prometheus.Registry
}

func (c *Container) Bridge() *bridge.Bridge        { return c.bridge }
func (c *Container) Server() *web.Server           { return c.server }
func (c *Container) Metrics() *prometheus.Registry { return c.metrics }

// Runner is nil when the desktop backend is disabled.
func (c *Container) Runner() *desktop.Runner { return c.runner }

// Reporter is nil when status reporting is disabled.
func (c *Container) Reporter() *report.Service { return c.reporter }

// Notifier is nil unless Slack is fully configured.
func (c *Container) Notifier() *notify.SlackNotifier { return c.notifier }

// Option adjusts how New wires the container.
type Option func(*options)

type options struct {
	bridge *bridge.Bridge
}

// WithBridge uses b instead of the process-wide bridge.
func WithBridge(b *bridge.Bridge) Option {
	return func(o *options) { o.bridge = b }
}

// New builds and wires all services from cfg.
func New(cfg *config.Config, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func(cfg *config.Config) (*bridge.Bridge, error) {
		if o.bridge != nil {
			return o.bridge, nil
		}
		bopts, err := cfg.Bridge.Options()
		if err != nil {
			return nil, err
		}
		return bridge.Init(bopts...), nil
	}); err != nil {
		return nil, err
	}
	if err := d.Provide(newMetricsRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(web.NewWaiter); err != nil {
		return nil, err
	}
	if err := d.Provide(web.NewHub); err != nil {
		return nil, err
	}
	if err := d.Provide(newDesktopRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newRunner); err != nil {
		return nil, err
	}
	if err := d.Provide(newServer); err != nil {
		return nil, err
	}
	if err := d.Provide(newReporter); err != nil {
		return nil, err
	}
	if err := d.Provide(newNotifier); err != nil {
		return nil, err
	}
	if err := d.Invoke(registerSubscribers); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		b *bridge.Bridge,
		runner *desktop.Runner,
		server *web.Server,
		reporter *report.Service,
		notifier *notify.SlackNotifier,
		reg *prometheus.Registry,
	) {
		result = &Container{
			bridge:   b,
			runner:   runner,
			server:   server,
			reporter: reporter,
			notifier: notifier,
			metrics:  reg,
		}
	})
	return result, err
}

func newMetricsRegistry(b *bridge.Bridge) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range b.Collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register bridge metrics: %w", err)
		}
	}
	return reg, nil
}

func newDesktopRegistry(cfg *config.Config, b *bridge.Bridge) *desktop.Registry {
	builder := desktop.NewRegistryBuilder().
		WithAction(desktop.PingAction{}).
		WithAction(desktop.EchoAction{}).
		WithAction(desktop.TimeAction{}).
		WithAction(desktop.StatusAction{Bridge: b})

	if cfg.Desktop.Shell.Enabled {
		builder.WithAction(desktop.NewShellAction(
			cfg.ShellWorkingDir(),
			time.Duration(cfg.Desktop.Shell.Timeout)*time.Second,
			cfg.Desktop.Shell.RestrictToWorkDir,
		))
	}
	return builder.Build()
}

func newRunner(cfg *config.Config, b *bridge.Bridge, reg *desktop.Registry) *desktop.Runner {
	if !cfg.Desktop.Enabled {
		return nil
	}
	return desktop.NewRunner(b, reg, cfg.Desktop.PollTimeout(), cfg.Desktop.CommandTimeout())
}

func newServer(cfg *config.Config, b *bridge.Bridge, w *web.Waiter, h *web.Hub, reg *prometheus.Registry) *web.Server {
	return web.NewServer(cfg.Web.Addr(), b, w, h, cfg.Web.ExecuteTimeout(), reg)
}

func newReporter(cfg *config.Config, b *bridge.Bridge) (*report.Service, error) {
	if !cfg.Report.Enabled {
		return nil, nil
	}
	return report.NewService(b, cfg.Report.Schedule, cfg.Report.BacklogThreshold)
}

func newNotifier(cfg *config.Config) *notify.SlackNotifier {
	if !cfg.SlackReady() {
		return nil
	}
	return notify.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel, cfg.Slack.OnlyFailures)
}

// registerSubscribers attaches the web and Slack subscribers in a fixed order.
func registerSubscribers(b *bridge.Bridge, w *web.Waiter, h *web.Hub, n *notify.SlackNotifier) error {
	subs := []bridge.Subscriber{w.Deliver, h.Broadcast}
	if n != nil {
		subs = append(subs, n.Notify)
	}
	for _, s := range subs {
		if err := b.RegisterSubscriber(s); err != nil {
			return err
		}
	}
	return nil
}
