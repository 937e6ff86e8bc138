package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"twinkle/internal/config"
	"twinkle/internal/daemon"
	"twinkle/internal/logging"
	"twinkle/internal/notifications"
	"twinkle/internal/organizer"
	"twinkle/internal/services"
	"twinkle/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	app, err := daemon.NewApp(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	d, err := daemon.New(app, logging.NewNop(), filepath.Join(cfg.Paths.LogDir, "twinkle.log"), logging.NewStreamHub(64), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}
	status := d.Status(ctx, false)
	if !status.Running || status.StartedAt.IsZero() {
		t.Fatalf("expected running status, got %+v", status)
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected lock path %s", status.LockFilePath)
	}
	if status.Oracle.Provider != config.ProviderNone {
		t.Fatalf("expected no oracle, got %+v", status.Oracle)
	}

	d.Stop()
	if d.Status(ctx, false).Running {
		t.Fatal("expected daemon to stop")
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg)
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	otherCfg := *cfg
	otherCfg.Storage.Path = filepath.Join(testsupport.BaseDir(cfg), "other.json")
	second := newDaemon(t, &otherCfg)
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected lock contention error")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
}

func TestDaemonOrganizesAndUndoes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	folder := filepath.Join(testsupport.BaseDir(cfg), "inbox")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, added, err := d.AddFolder(ctx, folder); err != nil || !added {
		t.Fatalf("AddFolder: added=%v err=%v", added, err)
	}

	src := filepath.Join(folder, "report.pdf")
	dest := filepath.Join(folder, "Organized", "PDFs", "report.pdf")
	testsupport.WriteText(t, src, "%PDF-1.7")
	waitFor(t, "file to be organized", func() bool { return exists(dest) })

	waitFor(t, "history entry", func() bool { return len(d.History(0)) == 1 })
	waitFor(t, "removal of the source to be seen", func() bool {
		for _, a := range d.Activity(0) {
			if a.Event == notifications.EventFileEvent && a.Payload["kind"] == "removed" {
				return true
			}
		}
		return false
	})
	time.Sleep(50 * time.Millisecond)
	if stats := d.Stats(); stats.FilesOrganized != 1 {
		t.Fatalf("expected 1 organized file, got %+v", stats)
	}

	seen := map[notifications.Event]bool{}
	for _, a := range d.Activity(0) {
		seen[a.Event] = true
	}
	for _, want := range []notifications.Event{notifications.EventFolderAdded, notifications.EventFileEvent, notifications.EventFileOrganized} {
		if !seen[want] {
			t.Fatalf("expected %s in activity feed, got %v", want, seen)
		}
	}

	res, err := d.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if res.Status != organizer.Undone {
		t.Fatalf("expected undone, got %+v", res)
	}
	if !exists(src) || exists(dest) {
		t.Fatal("expected file back at its original path")
	}

	// The restored file must not be organized again.
	time.Sleep(300 * time.Millisecond)
	if !exists(src) {
		t.Fatal("restored file was moved again")
	}
}

func TestDaemonFolderPersistence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	ctx := context.Background()

	folder := filepath.Join(testsupport.BaseDir(cfg), "Downloads")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path, added, err := d.AddFolder(ctx, folder+"/")
	if err != nil || !added || path != folder {
		t.Fatalf("AddFolder: path=%s added=%v err=%v", path, added, err)
	}
	if _, added, _ := d.AddFolder(ctx, folder); added {
		t.Fatal("expected duplicate add to report added=false")
	}

	folders := d.Folders()
	if len(folders) != 1 || !folders[0].Watching || folders[0].Subfolder != "Downloads_Organized" {
		t.Fatalf("unexpected folders %+v", folders)
	}

	if _, _, err := d.AddFolder(ctx, filepath.Join(folder, "missing")); err == nil {
		t.Fatal("expected error for missing folder")
	}
	if len(d.Folders()) != 1 {
		t.Fatal("failed add must not be persisted")
	}

	if _, removed, err := d.RemoveFolder(ctx, folder); err != nil || !removed {
		t.Fatalf("RemoveFolder: removed=%v err=%v", removed, err)
	}
	if len(d.Folders()) != 0 {
		t.Fatalf("expected no folders, got %+v", d.Folders())
	}
	if _, removed, _ := d.RemoveFolder(ctx, folder); removed {
		t.Fatal("expected second remove to report removed=false")
	}

	if _, _, err := d.AddFolder(ctx, "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
}

func TestDaemonRestoresFolders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	folder := filepath.Join(testsupport.BaseDir(cfg), "Desktop")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	gone := filepath.Join(testsupport.BaseDir(cfg), "gone")
	cfg.Watch.DefaultFolders = []string{folder, gone}

	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	folders := d.Folders()
	if len(folders) != 2 {
		t.Fatalf("expected both default folders persisted, got %+v", folders)
	}
	watching := map[string]bool{}
	for _, f := range folders {
		watching[f.Path] = f.Watching
	}
	if !watching[folder] || watching[gone] {
		t.Fatalf("unexpected watch state %v", watching)
	}
}

func TestDaemonRescanSchedule(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.RescanSchedule = "every tuesday"
	d := newDaemon(t, cfg)
	ctx := context.Background()
	if err := d.Start(ctx); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg.Watch.RescanSchedule = "@every 1h"
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start with valid schedule: %v", err)
	}
	status := d.Status(ctx, false)
	if status.NextRescan.IsZero() {
		t.Fatalf("expected next rescan time, got %+v", status)
	}
}

func TestDaemonRescan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	ctx := context.Background()
	folder := filepath.Join(testsupport.BaseDir(cfg), "inbox")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, _, err := d.AddFolder(ctx, folder); err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	got, err := d.Rescan("")
	if err != nil || len(got) != 1 || got[0] != folder {
		t.Fatalf("Rescan all: %v %v", got, err)
	}
	if _, err := d.Rescan(filepath.Join(folder, "elsewhere")); err == nil {
		t.Fatal("expected error rescanning an unwatched folder")
	}
}

func TestDaemonClassifyPreview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	folder := filepath.Join(testsupport.BaseDir(cfg), "Desktop")
	src := filepath.Join(folder, "notes.md")
	testsupport.WriteText(t, src, "# notes")

	verdict, dest, err := d.Classify(context.Background(), src)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict.SuggestedFolder == "" || verdict.Source == "" {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
	want := filepath.Join(folder, "Desktop_Organized", verdict.SuggestedFolder, "notes.md")
	if dest != want {
		t.Fatalf("expected %s, got %s", want, dest)
	}
	if !exists(src) {
		t.Fatal("classify must not move the file")
	}

	if _, _, err := d.Classify(context.Background(), folder); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for a directory, got %v", err)
	}
}

func TestOracleSelection(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		provider string
	}{
		{"none", func(c *config.Config) {}, config.ProviderNone},
		{"anthropic without key", func(c *config.Config) { c.Classifier.Provider = config.ProviderAnthropic }, config.ProviderNone},
		{"anthropic", func(c *config.Config) {
			c.Classifier.Provider = config.ProviderAnthropic
			c.Anthropic.APIKey = "sk-test"
		}, config.ProviderAnthropic},
		{"openrouter", func(c *config.Config) {
			c.Classifier.Provider = config.ProviderOpenRouter
			c.LLM.APIKey = "or-test"
		}, config.ProviderOpenRouter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			tt.mutate(cfg)
			d := newDaemon(t, cfg)
			status := d.Status(context.Background(), false)
			if status.Oracle.Provider != tt.provider {
				t.Fatalf("expected provider %s, got %+v", tt.provider, status.Oracle)
			}
			if status.Oracle.Checked {
				t.Fatal("oracle must not be probed unless requested")
			}
		})
	}
}
