// Package backend selects a storage.Store implementation from configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/internal/storage/mongo"
	"github.com/binhbb2204/GameShelf/internal/storage/sqlite"
	"github.com/binhbb2204/GameShelf/pkg/config"
)

const connectTimeout = 10 * time.Second

// Open returns the store for cfg.Driver: "mongo" or "sqlite" (the default).
func Open(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		store, err := mongo.New(connectCtx, cfg.MongoURI, cfg.MongoName)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		return store, nil
	case "", "sqlite":
		store, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
