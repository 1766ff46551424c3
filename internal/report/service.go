// Package report periodically logs the bridge status.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/vatsalai/vatsal/internal/bridge"
)

// StatusReader is the part of the bridge the reporter reads.
type StatusReader interface {
	Status() bridge.Status
}

// Report is the outcome of one check.
type Report struct {
	Status bridge.Status
	// Backlog is set when commands pile up faster than a backend drains them.
	Backlog bool
}

// Service runs Check on a cron schedule.
type Service struct {
	bridge    StatusReader
	schedule  robfigcron.Schedule
	spec      string
	threshold int

	mu   sync.Mutex
	last *Report
}

// NewService parses spec (standard five-field cron or a descriptor such as
// "@every 1m"). threshold <= 0 disables the backlog warning.
func NewService(b StatusReader, spec string, threshold int) (*Service, error) {
	sched, err := robfigcron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("report: parse schedule %q: %w", spec, err)
	}
	return &Service{bridge: b, schedule: sched, spec: spec, threshold: threshold}, nil
}

// Check takes one snapshot and logs it.
func (s *Service) Check() Report {
	st := s.bridge.Status()
	r := Report{
		Status:  st,
		Backlog: s.threshold > 0 && st.PendingCommands > s.threshold,
	}

	attrs := []any{
		"running", st.Running,
		"backend", st.Backend,
		"subscribers", st.Subscribers,
		"pending_commands", st.PendingCommands,
		"pending_responses", st.PendingResponses,
		"subscriber_faults", st.SubscriberFaults,
	}
	switch {
	case r.Backlog && !st.BackendRegistered:
		slog.Warn("report: commands queued with no backend registered", attrs...)
	case r.Backlog:
		slog.Warn("report: command backlog above threshold", append(attrs, "threshold", s.threshold)...)
	default:
		slog.Info("report: bridge status", attrs...)
	}

	s.mu.Lock()
	s.last = &r
	s.mu.Unlock()
	return r
}

// Last returns the most recent report, if any.
func (s *Service) Last() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// Start runs the schedule until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	c := robfigcron.New()
	c.Schedule(s.schedule, robfigcron.FuncJob(func() { s.Check() }))
	c.Start()
	slog.Info("report: started", "schedule", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("report: stopped")
	return ctx.Err()
}
