// Command profilectl runs the offline jobs behind the dashboard:
//
//	profilectl analyze [-c N] [-e email] [-f]   classify pending users
//	profilectl import profiles.json             bulk upsert generated profiles
//
// Configuration comes from the same environment variables as the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/profile-dashboard/internal/config"
	"github.com/sakif/profile-dashboard/internal/logging"
	"github.com/sakif/profile-dashboard/internal/repository"
	"github.com/sakif/profile-dashboard/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "profilectl",
		Short:        "Offline jobs for the user profile dashboard",
		SilenceUsage: true,
	}
	root.AddCommand(newAnalyzeCmd(), newImportCmd())
	return root
}

// env is what every subcommand needs: configuration, a logger and an open store.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	store  repository.Store
}

// setup loads configuration and opens the store. The returned func releases
// both and must be called.
func setup(ctx context.Context) (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, sync, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	store, err := storage.Open(openCtx, cfg.Store)
	if err != nil {
		sync()
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store", slog.String("error", err.Error()))
		}
		sync()
	}
	return &env{cfg: cfg, logger: logger, store: store}, cleanup, nil
}
