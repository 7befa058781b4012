package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ubuhinzi360/server/internal/config"
)

// Open connects the backend selected by cfg.StorageDriver
func Open(ctx context.Context, cfg config.Config) (KV, error) {
	switch cfg.StorageDriver {
	case config.DriverPebble, "":
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return OpenPebble(filepath.Join(cfg.DataDir, "state"))
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
