// Package storage opens the configured document store.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/profile-dashboard/internal/config"
	"github.com/sakif/profile-dashboard/internal/repository"
	mongoRepo "github.com/sakif/profile-dashboard/internal/repository/mongo"
	sqliteRepo "github.com/sakif/profile-dashboard/internal/repository/sqlite"
)

// Open returns the Store selected by cfg.Driver. The caller owns it and must
// Close it.
func Open(ctx context.Context, cfg config.Store) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			dir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("storage: creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.DriverMongo:
		store, err := mongoRepo.New(ctx, mongoRepo.Config{
			URI:               cfg.MongoURI,
			Database:          cfg.MongoDB,
			ProfileCollection: cfg.ProfileCollection,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
