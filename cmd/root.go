// Package cmd wires the qsmath command line: a long-running search host
// (serve) and one-shot search and copy commands for scripting.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"qsmath/internal/clipboard"
	"qsmath/internal/config"
	"qsmath/internal/plugins"
)

var (
	configFile string
	logLevel   string
	version    = "<dev>"
)

// out receives command output. Tests replace it to capture results.
var out io.Writer = os.Stdout

var rootCmd = &cobra.Command{
	Use:           "qsmath",
	Short:         "Quick-search host with a calculator plugin",
	Long:          `Evaluates arithmetic typed into a search box and copies answers to the clipboard. Additional search plugins can be loaded as Go plugins.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		slog.SetDefault(newLogger(cmd.Name(), parseLogLevel(logLevel)))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file (defaults to the builtin Math plugin)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid log level, defaulting to info", "level", level)
		return slog.LevelInfo
	}
}

// newLogger logs JSON to stdout for the server and plain text to stderr for
// one-shot commands, whose stdout carries results.
func newLogger(command string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if command == serveCmd.Name() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newManager builds a plugin manager with cfg's plugins loaded.
func newManager(cfg *config.Config) (*plugins.Manager, error) {
	cb, err := clipboard.New(cfg.Clipboard)
	if err != nil {
		return nil, err
	}

	manager, err := plugins.NewWithBuiltins(cb)
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin manager: %w", err)
	}
	return manager, nil
}

// Execute runs the root command. Exit code 1 indicates error.
func Execute(v string) {
	if v != "" {
		version = v
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
