package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cerplabs/quiver/internal/config"
	"github.com/cerplabs/quiver/internal/httpapi"
	"github.com/cerplabs/quiver/internal/registry"
)

// newServeCmd starts the HTTP transport over a freshly loaded registry.
func newServeCmd() *cobra.Command {
	var port int
	var dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the quiver HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), port, dataDir)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP listen port (overrides config file and env)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding collection snapshots (overrides config file and env)")

	return cmd
}

func runServe(ctx context.Context, portFlag int, dataDirFlag string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}

	reg, err := registry.NewRegistry(cfg.DataDir, slog.Default(), cfg.BM25.K1, cfg.BM25.B)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	server := httpapi.NewServer(reg, slog.Default())
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("quiver listening", slog.Int("port", cfg.Port), slog.String("data_dir", cfg.DataDir))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
