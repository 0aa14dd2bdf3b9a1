package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bastion-hq/bastion/pkg/cli"
	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "bastion",
	Short: "Bastion - schema-driven payload validation",
	Long: `Bastion validates untrusted JSON payloads against declarative schemas.

A schema names each field's type, whether it is required or nullable, and
the rules its value must satisfy (pattern, length, range, date-time format).
Validation reports every violation in the payload at once.

Bastion runs as a one-shot CLI or as an HTTP service that serves a
directory (or Git repository) of schema documents and reloads them on change.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the status cli.ExitCode
// assigns to its error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, cli.ErrChecksFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
}

// loadConfig loads the process configuration once and applies the global
// flag overrides.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("config", fmt.Sprintf("failed to load %q: %v", cfgFile, err))
	}
	cfg := config.GetConfig()

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the command logger. Logs go to the command's stderr so
// stdout carries only results.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Telemetry.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
