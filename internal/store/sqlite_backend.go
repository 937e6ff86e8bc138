package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteBackend stores the record in a SQLite database.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	backend := &SQLiteBackend{db: db, path: path}
	if err := backend.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

func (b *SQLiteBackend) initSchema(ctx context.Context) error {
	var tableExists int
	err := b.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return b.createSchema(ctx)
	}

	var version int
	if err := b.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start over)",
			ErrSchemaMismatch, version, schemaVersion, b.path)
	}
	return nil
}

func (b *SQLiteBackend) createSchema(ctx context.Context) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO stats (id) VALUES (1)"); err != nil {
		return fmt.Errorf("seed stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Load reads the full record.
func (b *SQLiteBackend) Load(ctx context.Context) (Record, error) {
	ctx = ensureContext(ctx)
	var rec Record
	err := retryOnBusy(ctx, func() error {
		loaded, err := b.load(ctx)
		if err != nil {
			return err
		}
		rec = loaded
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	rec.normalize()
	return rec, nil
}

func (b *SQLiteBackend) load(ctx context.Context) (Record, error) {
	var rec Record

	rows, err := b.db.QueryContext(ctx, "SELECT path FROM folders ORDER BY position")
	if err != nil {
		return rec, fmt.Errorf("query folders: %w", err)
	}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			_ = rows.Close()
			return rec, fmt.Errorf("scan folder: %w", err)
		}
		rec.Folders = append(rec.Folders, path)
	}
	if err := closeRows(rows); err != nil {
		return rec, fmt.Errorf("iterate folders: %w", err)
	}

	row := b.db.QueryRowContext(ctx, "SELECT files_organized, folders_created, time_saved_hours FROM stats WHERE id = 1")
	if err := row.Scan(&rec.Stats.FilesOrganized, &rec.Stats.FoldersCreated, &rec.Stats.TimeSavedHours); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("scan stats: %w", err)
	}

	rows, err = b.db.QueryContext(ctx, "SELECT id, created_at, type, from_path, to_path, folder FROM history ORDER BY position")
	if err != nil {
		return rec, fmt.Errorf("query history: %w", err)
	}
	for rows.Next() {
		var (
			entry     Entry
			createdAt string
			kind      string
		)
		if err := rows.Scan(&entry.ID, &createdAt, &kind, &entry.From, &entry.To, &entry.Folder); err != nil {
			_ = rows.Close()
			return rec, fmt.Errorf("scan history: %w", err)
		}
		entry.Type = EntryType(kind)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.Timestamp = ts
		}
		rec.History = append(rec.History, entry)
	}
	if err := closeRows(rows); err != nil {
		return rec, fmt.Errorf("iterate history: %w", err)
	}
	return rec, nil
}

// Save replaces every table's contents with rec in one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, rec Record) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return b.save(ctx, rec)
	})
}

func (b *SQLiteBackend) save(ctx context.Context, rec Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM folders", "DELETE FROM history"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}
	for i, path := range rec.Folders {
		if _, err := tx.ExecContext(ctx, "INSERT INTO folders (position, path) VALUES (?, ?)", i, path); err != nil {
			return fmt.Errorf("insert folder %s: %w", path, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stats (id, files_organized, folders_created, time_saved_hours) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET files_organized = excluded.files_organized,
		   folders_created = excluded.folders_created, time_saved_hours = excluded.time_saved_hours`,
		rec.Stats.FilesOrganized, rec.Stats.FoldersCreated, rec.Stats.TimeSavedHours,
	); err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	for i, entry := range rec.History {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO history (position, id, created_at, type, from_path, to_path, folder) VALUES (?, ?, ?, ?, ?, ?, ?)",
			i, entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano), string(entry.Type), entry.From, entry.To, entry.Folder,
		); err != nil {
			return fmt.Errorf("insert history %s: %w", entry.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func closeRows(rows *sql.Rows) error {
	iterErr := rows.Err()
	closeErr := rows.Close()
	if iterErr != nil {
		return iterErr
	}
	return closeErr
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
