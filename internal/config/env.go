package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvSlackToken = "SLACK_BOT_TOKEN"
	EnvWebAddr    = "VATSAL_WEB_ADDR"
)

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env %s: %w", f, err)
		}
		slog.Debug("config: env file loaded", "path", f)
	}
	return nil
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv() error {
	if tok := os.Getenv(EnvSlackToken); tok != "" {
		c.Slack.BotToken = tok
	}
	if addr := os.Getenv(EnvWebAddr); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWebAddr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvWebAddr, portStr)
		}
		c.Web.Host = host
		c.Web.Port = port
	}
	return nil
}

// Addr returns host:port for the web server.
func (c WebConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
