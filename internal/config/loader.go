package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigPath returns the default configuration file path: ~/.vatsal/config.yaml.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the vatsal data directory: ~/.vatsal.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vatsal"
	}
	return filepath.Join(home, ".vatsal")
}

// Load reads the config file at path (ConfigPath if empty) over the
// defaults. A missing file yields the defaults. Malformed YAML is logged
// and ignored. Values that parse but cannot be used are returned as an
// error wrapping ErrInvalid.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := decode(data, &cfg); err != nil {
		slog.Warn("config: malformed file ignored, using defaults", "path", path, "err", err)
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// decode overlays data onto cfg. cfg is left untouched on error.
func decode(data []byte, cfg *Config) error {
	next := *cfg
	if err := yaml.Unmarshal(data, &next); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// Save validates cfg and writes it to path (ConfigPath if empty). The file
// is written beside the target and renamed over it, so a reader never sees
// a partial config.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
