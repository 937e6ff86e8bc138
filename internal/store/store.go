package store

import (
	"context"
	"log/slog"
	"sync"

	"twinkle/internal/config"
	"twinkle/internal/logging"
	"twinkle/internal/services"
)

// Store holds the in-memory record and saves it through a Backend after every
// mutation.
type Store struct {
	mu      sync.Mutex
	backend Backend
	rec     Record
	logger  *slog.Logger
}

// Open loads the record from backend.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	rec, err := backend.Load(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "load", "failed to load state", err)
	}
	rec.normalize()
	s := &Store{
		backend: backend,
		rec:     rec,
		logger:  logging.NewComponentLogger(logger, "store"),
	}
	s.logger.Debug("state loaded",
		logging.Int("folders", len(rec.Folders)),
		logging.Int("history", len(rec.History)),
		logging.Int("files_organized", rec.Stats.FilesOrganized),
	)
	return s, nil
}

// OpenFromConfig opens the backend configured in cfg and loads it.
func OpenFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	backend, err := OpenBackend(cfg, logger)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "open backend", cfg.Storage.Backend, err)
	}
	s, err := Open(ctx, backend, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return s, nil
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone()
}

// Folders returns a copy of the persisted folder list.
func (s *Store) Folders() []string {
	return s.Snapshot().Folders
}

// Stats returns the current counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Stats
}

// Update applies fn to a copy of the record and saves it. The in-memory record
// only changes when fn succeeds and the save succeeds.
func (s *Store) Update(ctx context.Context, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.rec.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.normalize()
	if err := s.backend.Save(ctx, next); err != nil {
		return services.Wrap(services.ErrPersistence, "store", "save", "failed to save state", err)
	}
	s.rec = next
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
