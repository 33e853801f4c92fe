// Package cmd provides the CLI commands for quiver.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cerplabs/quiver/internal/logging"
	"github.com/cerplabs/quiver/pkg/version"
)

// Debug logging flag.
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the quiver CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiver",
		Short: "Operator CLI for the quiver search engine",
		Long: `quiver is the operator-facing CLI for a self-hosted, multi-collection
full-text search engine: start the HTTP server, manage collections,
and issue ad-hoc searches from the command line.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("quiver version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.quiver/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCollectionsCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newDocsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
