package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"twinkle/internal/logging"
)

// JSONBackend stores the record as an indented JSON document.
type JSONBackend struct {
	path   string
	logger *slog.Logger
}

// NewJSONBackend returns a backend writing to path.
func NewJSONBackend(path string, logger *slog.Logger) *JSONBackend {
	return &JSONBackend{path: path, logger: logging.NewComponentLogger(logger, "store")}
}

// Path returns the backing file path.
func (b *JSONBackend) Path() string {
	return b.path
}

// Load reads the record. A missing file yields an empty record. An unreadable
// document is moved aside so the next save starts clean.
func (b *JSONBackend) Load(_ context.Context) (Record, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		rec := Record{}
		rec.normalize()
		return rec, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", b.path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%s", b.path, time.Now().UTC().Format("20060102T150405"))
		if renameErr := os.Rename(b.path, aside); renameErr != nil {
			return Record{}, fmt.Errorf("decode %s: %w (quarantine failed: %v)", b.path, err, renameErr)
		}
		logging.WarnWithContext(b.logger, "state file unreadable; starting fresh", "state_quarantined",
			logging.String("path", b.path),
			logging.String("quarantined_to", aside),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the quarantined file to recover folders and history"),
			logging.String(logging.FieldImpact, "folders, stats, and history reset to empty"),
		)
		rec = Record{}
	}
	rec.normalize()
	return rec, nil
}

// Save writes rec to a temp file in the same directory, syncs it, and renames
// it over the previous document.
func (b *JSONBackend) Save(_ context.Context, rec Record) error {
	rec.normalize()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Close is a no-op.
func (b *JSONBackend) Close() error {
	return nil
}
