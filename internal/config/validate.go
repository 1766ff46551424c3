package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vatsalai/vatsal/internal/bridge"
)

// ErrInvalid marks a config value that cannot be used.
var ErrInvalid = errors.New("invalid config")

var logLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate reports every unusable value in c. Each problem wraps ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !logLevels[strings.ToLower(c.LogLevel)] {
		bad("logLevel %q", c.LogLevel)
	}

	if _, ok := bridge.ParseOverflowPolicy(c.Bridge.OverflowPolicy); !ok {
		bad("bridge.overflowPolicy %q (want reject or drop_oldest)", c.Bridge.OverflowPolicy)
	}
	if c.Bridge.CommandCapacity < 0 {
		bad("bridge.commandCapacity %d is negative", c.Bridge.CommandCapacity)
	}
	if c.Bridge.ResponseCapacity < 0 {
		bad("bridge.responseCapacity %d is negative", c.Bridge.ResponseCapacity)
	}
	if c.Bridge.MonitorIntervalMs < 0 || c.Bridge.StopTimeoutMs < 0 {
		bad("bridge timings must not be negative")
	}

	if c.Desktop.PollTimeoutMs < 0 || c.Desktop.CommandTimeoutMs < 0 {
		bad("desktop timeouts must not be negative")
	}
	if c.Desktop.Shell.Timeout < 0 {
		bad("desktop.shell.timeout %d is negative", c.Desktop.Shell.Timeout)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		bad("web.port %d out of range", c.Web.Port)
	}
	if c.Web.ExecuteTimeoutMs < 0 {
		bad("web.executeTimeoutMs %d is negative", c.Web.ExecuteTimeoutMs)
	}

	if c.Report.Enabled && strings.TrimSpace(c.Report.Schedule) == "" {
		bad("report.schedule is empty")
	}

	return errors.Join(errs...)
}
