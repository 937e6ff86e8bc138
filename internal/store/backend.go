package store

import (
	"context"
	"fmt"
	"log/slog"

	"twinkle/internal/config"
)

// Backend loads and saves whole Records.
type Backend interface {
	// Load returns the stored record, or an empty one when nothing is stored yet.
	Load(ctx context.Context) (Record, error)
	// Save replaces the stored record.
	Save(ctx context.Context, rec Record) error
	Close() error
}

// OpenBackend builds the backend selected by cfg.Storage.
func OpenBackend(cfg *config.Config, logger *slog.Logger) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageJSON, "":
		return NewJSONBackend(cfg.Storage.Path, logger), nil
	case config.StorageSQLite:
		return OpenSQLite(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
