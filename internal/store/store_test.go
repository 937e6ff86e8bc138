package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"twinkle/internal/config"
	"twinkle/internal/logging"
	"twinkle/internal/services"
	"twinkle/internal/store"
)

func sampleRecord() store.Record {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return store.Record{
		Folders: []string{"/home/u/Downloads", "/home/u/Desktop"},
		Stats:   store.Stats{FilesOrganized: 3, FoldersCreated: 2, TimeSavedHours: 0.15},
		History: []store.Entry{
			{ID: "b", Timestamp: ts.Add(time.Minute), Type: store.EntryMove, From: "/home/u/Downloads/a.pdf", To: "/home/u/Downloads/Downloads_Organized/PDFs/a.pdf", Folder: "/home/u/Downloads"},
			{ID: "a", Timestamp: ts, Type: store.EntryCreateFolder, To: "/home/u/Downloads/Downloads_Organized/PDFs", Folder: "/home/u/Downloads"},
		},
	}
}

func backends(t *testing.T) map[string]func(t *testing.T, dir string) store.Backend {
	t.Helper()
	return map[string]func(t *testing.T, dir string) store.Backend{
		"json": func(t *testing.T, dir string) store.Backend {
			return store.NewJSONBackend(filepath.Join(dir, "config.json"), logging.NewNop())
		},
		"sqlite": func(t *testing.T, dir string) store.Backend {
			b, err := store.OpenSQLite(filepath.Join(dir, "twinkle.db"))
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return b
		},
	}
}

func TestBackendsRoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()

			b := open(t, dir)
			empty, err := b.Load(ctx)
			if err != nil {
				t.Fatalf("Load empty: %v", err)
			}
			if len(empty.Folders) != 0 || len(empty.History) != 0 || empty.Stats != (store.Stats{}) {
				t.Fatalf("expected empty record, got %+v", empty)
			}

			want := sampleRecord()
			if err := b.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := b.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			reopened := open(t, dir)
			defer reopened.Close()
			got, err := reopened.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONBackendKeepsOriginalLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	b := store.NewJSONBackend(path, logging.NewNop())
	if err := b.Save(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, key := range []string{`"folders"`, `"filesOrganized"`, `"foldersCreated"`, `"timeSaved"`, `"fileHistory"`, `"type": "create-folder"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("expected %s in document:\n%s", key, data)
		}
	}
}

func TestJSONBackendLoadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{
  "folders": ["/Users/u/Desktop"],
  "stats": {"filesOrganized": 1, "foldersCreated": 1, "timeSaved": 0.05},
  "fileHistory": [
    {"type": "move", "from": "/Users/u/Desktop/a.png", "to": "/Users/u/Desktop/Desktop_Organized/Images/a.png", "id": "1700000000000", "timestamp": "2023-11-14T22:13:20.000Z"}
  ]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err := store.NewJSONBackend(path, logging.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rec.History) != 1 || rec.History[0].ID != "1700000000000" || rec.History[0].Type != store.EntryMove {
		t.Fatalf("unexpected history: %+v", rec.History)
	}
	if rec.History[0].Timestamp.Year() != 2023 {
		t.Fatalf("timestamp not decoded: %v", rec.History[0].Timestamp)
	}
}

func TestJSONBackendQuarantinesCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err := store.NewJSONBackend(path, logging.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rec.Folders) != 0 {
		t.Fatalf("expected empty record, got %+v", rec)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "config.json.corrupt-*"))
	if len(matches) != 1 {
		t.Fatalf("expected quarantined file, found %v", matches)
	}
}

func TestStoreUpdatePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	s, err := store.Open(ctx, store.NewJSONBackend(path, logging.NewNop()), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Update(ctx, func(r *store.Record) error {
		r.AddFolder("/data/Downloads")
		r.Stats.RecordOrganized(2)
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := store.Open(ctx, store.NewJSONBackend(path, logging.NewNop()), logging.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reloaded.Folders(); len(got) != 1 || got[0] != "/data/Downloads" {
		t.Fatalf("unexpected folders %v", got)
	}
	stats := reloaded.Stats()
	if stats.FilesOrganized != 2 || stats.TimeSavedHours < 0.0999 || stats.TimeSavedHours > 0.1001 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStoreUpdateErrorLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.NewJSONBackend(filepath.Join(t.TempDir(), "config.json"), logging.NewNop()), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	boom := errors.New("boom")
	err = s.Update(ctx, func(r *store.Record) error {
		r.AddFolder("/x")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if len(s.Folders()) != 0 {
		t.Fatalf("record changed after failed update: %v", s.Folders())
	}
}

type failingBackend struct{ store.Backend }

func (failingBackend) Load(context.Context) (store.Record, error) { return store.Record{}, nil }
func (failingBackend) Save(context.Context, store.Record) error   { return errors.New("disk full") }
func (failingBackend) Close() error                               { return nil }

func TestStoreSaveFailureIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, failingBackend{}, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	err = s.Update(ctx, func(r *store.Record) error {
		r.Stats.FoldersCreated++
		return nil
	})
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if s.Stats().FoldersCreated != 0 {
		t.Fatalf("in-memory record advanced despite failed save")
	}
}

func TestRecordFolderSet(t *testing.T) {
	var r store.Record
	if !r.AddFolder("/a") || r.AddFolder("/a") {
		t.Fatal("AddFolder should add once")
	}
	r.AddFolder("/b")
	if !r.RemoveFolder("/a") || r.RemoveFolder("/a") {
		t.Fatal("RemoveFolder should remove once")
	}
	if diff := cmp.Diff([]string{"/b"}, r.Folders); diff != "" {
		t.Fatalf("folders mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenFromConfigSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.StorageSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "state", "twinkle.db")

	s, err := store.OpenFromConfig(context.Background(), &cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("OpenFromConfig: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}
