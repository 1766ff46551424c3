// Package config defines the configuration schema for vatsal.
//
// The file lives at ~/.vatsal/config.yaml; keys use camelCase.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vatsalai/vatsal/internal/bridge"
)

// BridgeConfig tunes the in-process bridge.
type BridgeConfig struct {
	MonitorIntervalMs int `yaml:"monitorIntervalMs"`
	StopTimeoutMs     int `yaml:"stopTimeoutMs"`
	// Zero capacity keeps a queue unbounded.
	CommandCapacity  int    `yaml:"commandCapacity"`
	ResponseCapacity int    `yaml:"responseCapacity"`
	OverflowPolicy   string `yaml:"overflowPolicy"` // "reject" or "drop_oldest"
}

func defaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		MonitorIntervalMs: int(bridge.DefaultMonitorInterval / time.Millisecond),
		StopTimeoutMs:     int(bridge.DefaultStopTimeout / time.Millisecond),
		OverflowPolicy:    "reject",
	}
}

// Options converts the settings into bridge options. An unknown overflow
// policy is an error rather than a silent fallback to reject.
func (c BridgeConfig) Options() ([]bridge.Option, error) {
	policy, ok := bridge.ParseOverflowPolicy(c.OverflowPolicy)
	if !ok {
		return nil, fmt.Errorf("%w: bridge.overflowPolicy %q (want reject or drop_oldest)",
			ErrInvalid, c.OverflowPolicy)
	}
	return []bridge.Option{
		bridge.WithMonitorInterval(time.Duration(c.MonitorIntervalMs) * time.Millisecond),
		bridge.WithStopTimeout(time.Duration(c.StopTimeoutMs) * time.Millisecond),
		bridge.WithCommandCapacity(c.CommandCapacity, policy),
		bridge.WithResponseCapacity(c.ResponseCapacity, policy),
	}, nil
}

// ShellConfig configures the "run" action.
type ShellConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Timeout           int    `yaml:"timeout"` // seconds
	WorkingDir        string `yaml:"workingDir"`
	RestrictToWorkDir bool   `yaml:"restrictToWorkDir"`
}

// DesktopConfig configures the backend runner.
type DesktopConfig struct {
	Enabled          bool        `yaml:"enabled"`
	PollTimeoutMs    int         `yaml:"pollTimeoutMs"`
	CommandTimeoutMs int         `yaml:"commandTimeoutMs"`
	Shell            ShellConfig `yaml:"shell"`
}

func defaultDesktopConfig() DesktopConfig {
	return DesktopConfig{
		Enabled:          true,
		PollTimeoutMs:    500,
		CommandTimeoutMs: 30000,
		Shell:            ShellConfig{Timeout: 60, WorkingDir: "~"},
	}
}

func (c DesktopConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutMs) * time.Millisecond
}

func (c DesktopConfig) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutMs) * time.Millisecond
}

// WebConfig holds HTTP front-end settings.
type WebConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ExecuteTimeoutMs int    `yaml:"executeTimeoutMs"`
}

func defaultWebConfig() WebConfig {
	return WebConfig{Host: "127.0.0.1", Port: 5000, ExecuteTimeoutMs: 30000}
}

func (c WebConfig) ExecuteTimeout() time.Duration {
	return time.Duration(c.ExecuteTimeoutMs) * time.Millisecond
}

// ReportConfig configures the periodic status reporter.
type ReportConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Schedule         string `yaml:"schedule"` // standard cron spec or @every
	BacklogThreshold int    `yaml:"backlogThreshold"`
}

func defaultReportConfig() ReportConfig {
	return ReportConfig{Enabled: true, Schedule: "@every 1m", BacklogThreshold: 10}
}

// SlackConfig configures the Slack response notifier.
type SlackConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BotToken     string `yaml:"botToken"`
	Channel      string `yaml:"channel"`
	OnlyFailures bool   `yaml:"onlyFailures"`
}

// Config is the root configuration object.
type Config struct {
	LogLevel string        `yaml:"logLevel"`
	Bridge   BridgeConfig  `yaml:"bridge"`
	Desktop  DesktopConfig `yaml:"desktop"`
	Web      WebConfig     `yaml:"web"`
	Report   ReportConfig  `yaml:"report"`
	Slack    SlackConfig   `yaml:"slack"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Bridge:   defaultBridgeConfig(),
		Desktop:  defaultDesktopConfig(),
		Web:      defaultWebConfig(),
		Report:   defaultReportConfig(),
	}
}

// ShellWorkingDir returns the expanded working directory for the run action.
func (c *Config) ShellWorkingDir() string {
	return expandHome(c.Desktop.Shell.WorkingDir)
}

// SlackReady reports whether the notifier has everything it needs.
func (c *Config) SlackReady() bool {
	return c.Slack.Enabled && c.Slack.BotToken != "" && c.Slack.Channel != ""
}

func expandHome(p string) string {
	if p != "~" && (len(p) < 2 || p[:2] != "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
