// Package cmd implements the vatsal CLI using cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/vatsalai/vatsal/internal/config"
)

const version = "0.1.0"
const logo = "🛰"

var (
	cfgPath  string
	envFile  string
	logLevel string
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "vatsal",
	Short: logo + " vatsal: web GUI bridge to the desktop assistant",
	Long:  logo + " vatsal relays commands from a web front-end to a desktop backend and streams the responses back",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		setupLogging(logLevel)
		return config.LoadEnv(envFile)
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default ~/.vatsal/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", ".env", "Env file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
}

func setupLogging(level string) {
	lvl, ok := logLevelMap[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
	})))
}

// loadConfig reads the config file and applies environment overrides. A
// --log-level flag wins over the file's logLevel.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("apply env: %w", err)
	}
	if logLevel == "" && cfg.LogLevel != "" {
		setupLogging(cfg.LogLevel)
	}
	return cfg, nil
}

func resolvedConfigPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	return config.ConfigPath()
}
