package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, dir string, v any) string {
	t.Helper()
	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Web.Port != def.Web.Port {
		t.Errorf("expected default port %d, got %d", def.Web.Port, cfg.Web.Port)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"web": map[string]any{
			"host": "0.0.0.0",
			"port": 8080,
		},
		"bridge": map[string]any{
			"commandCapacity": 64,
			"overflowPolicy":  "drop_oldest",
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Web.Addr() != "0.0.0.0:8080" {
		t.Errorf("expected addr 0.0.0.0:8080, got %q", cfg.Web.Addr())
	}
	if cfg.Bridge.CommandCapacity != 64 || cfg.Bridge.OverflowPolicy != "drop_oldest" {
		t.Errorf("unexpected bridge config %+v", cfg.Bridge)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("web: [not: valid"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for invalid YAML (falls back to default), got: %v", err)
	}
	if cfg.Web.Port != DefaultConfig().Web.Port {
		t.Errorf("expected default port, got %d", cfg.Web.Port)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := DefaultConfig()
	original.Report.Schedule = "*/5 * * * *"
	original.Desktop.Shell.Enabled = true

	if err := Save(&original, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Report.Schedule != original.Report.Schedule {
		t.Errorf("schedule mismatch: got %q, want %q", loaded.Report.Schedule, original.Report.Schedule)
	}
	if !loaded.Desktop.Shell.Enabled {
		t.Error("expected shell enabled after round trip")
	}
}

func TestSave_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %04o", perm)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "dir", "config.yaml")

	cfg := DefaultConfig()
	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestLoad_PartialConfig_UsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"desktop": map[string]any{
			"pollTimeoutMs": 200,
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Desktop.PollTimeout() != 200*time.Millisecond {
		t.Errorf("expected poll timeout 200ms, got %v", cfg.Desktop.PollTimeout())
	}
	// Unset fields keep their defaults.
	if cfg.Desktop.CommandTimeout() != 30*time.Second {
		t.Errorf("expected default command timeout, got %v", cfg.Desktop.CommandTimeout())
	}
	if !cfg.Desktop.Enabled {
		t.Error("expected desktop enabled by default")
	}
}

func TestLoad_UnknownOverflowPolicyIsError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), map[string]any{
		"bridge": map[string]any{"overflowPolicy": "drop"},
	})

	cfg, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got cfg=%v err=%v", cfg, err)
	}
	if !strings.Contains(err.Error(), "overflowPolicy") {
		t.Errorf("expected error to name the field, got %v", err)
	}
}

func TestLoad_ReportsEveryInvalidValue(t *testing.T) {
	path := writeConfig(t, t.TempDir(), map[string]any{
		"logLevel": "loud",
		"bridge":   map[string]any{"commandCapacity": -1},
		"web":      map[string]any{"port": 70000},
	})

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"logLevel", "commandCapacity", "web.port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestSave_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Bridge.OverflowPolicy = "sometimes"

	if err := Save(&cfg, path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file written, stat err=%v", err)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	if err := Save(&cfg, filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.yaml" {
		t.Errorf("unexpected directory contents %v", entries)
	}
}

func TestBridgeOptions_UnknownPolicy(t *testing.T) {
	c := BridgeConfig{OverflowPolicy: "drop"}
	if _, err := c.Options(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

// ─── Environment ───────────────────────────────────────────────────────────

func TestLoadEnv_FileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := EnvSlackToken + "=xoxb-from-file\n" + EnvWebAddr + "=0.0.0.0:9000\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSlackToken, "")
	os.Unsetenv(EnvSlackToken)
	t.Setenv(EnvWebAddr, "")
	os.Unsetenv(EnvWebAddr)

	if err := LoadEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-from-file" {
		t.Errorf("expected token from env file, got %q", cfg.Slack.BotToken)
	}
	if cfg.Web.Host != "0.0.0.0" || cfg.Web.Port != 9000 {
		t.Errorf("unexpected web config %+v", cfg.Web)
	}
}

func TestApplyEnv_InvalidAddr(t *testing.T) {
	t.Setenv(EnvWebAddr, "no-port")
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("expected error for malformed address")
	}
}

func TestBridgeOptions_DefaultsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}
	opts, err := cfg.Bridge.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if n := len(opts); n != 4 {
		t.Errorf("expected 4 options, got %d", n)
	}
	if cfg.Bridge.MonitorIntervalMs != 250 || cfg.Bridge.StopTimeoutMs != 2000 {
		t.Errorf("unexpected bridge defaults %+v", cfg.Bridge)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandHome("~/work"); got != filepath.Join(home, "work") {
		t.Errorf("unexpected expansion %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("absolute path changed: %q", got)
	}
}
