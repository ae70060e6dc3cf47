// Package main is the entry point for the dashboard server.
//
// main stays minimal: read configuration, build the logger, open the store,
// start the server. All actual logic lives in internal/.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/profile-dashboard/internal/config"
	"github.com/sakif/profile-dashboard/internal/logging"
	"github.com/sakif/profile-dashboard/internal/server"
	"github.com/sakif/profile-dashboard/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// === 2. LOGGING ===
	logger, sync, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer sync()

	// === 3. STORE ===
	// The connect timeout only bounds opening and pinging; the store itself
	// lives for the whole process.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := storage.Open(ctx, cfg.Store)
	cancel()
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.Store.Driver),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer store.Close()
	logger.Info("store opened", slog.String("driver", cfg.Store.Driver))

	// === 4. SERVE ===
	// Start blocks until Ctrl+C or SIGTERM.
	srv := server.New(cfg.Server, store, logger)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
