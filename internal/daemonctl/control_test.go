package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"twinkle/internal/daemonctl"
	"twinkle/internal/store"
	"twinkle/internal/testsupport"
)

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content *string
		want    int
		wantErr bool
	}{
		{name: "missing", content: nil, want: 0},
		{name: "empty", content: ptr(""), want: 0},
		{name: "valid", content: ptr("4242\n"), want: 4242},
		{name: "garbage", content: ptr("abc"), wantErr: true},
		{name: "negative", content: ptr("-1"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".pid")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			got, err := daemonctl.ReadPID(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadPID error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ReadPID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(cfg.Paths.SocketPath, cfg, 100*time.Millisecond)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
	alive, pid, err := daemonctl.ProcessInfo(cfg.Paths.SocketPath)
	if alive || pid != 0 || err != nil {
		t.Fatalf("ProcessInfo = %v %d %v", alive, pid, err)
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.Update(context.Background(), func(rec *store.Record) error {
		rec.AddFolder("/home/u/Downloads")
		rec.Stats.RecordOrganized(3)
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	status, live, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.Paths.SocketPath, cfg, false)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if live || status.Running {
		t.Fatalf("expected offline snapshot, got %+v", status)
	}
	if len(status.Folders) != 1 || status.Folders[0].Path != "/home/u/Downloads" {
		t.Fatalf("unexpected folders %+v", status.Folders)
	}
	if status.Stats.FilesOrganized != 3 || status.LockPath != cfg.LockPath() {
		t.Fatalf("unexpected snapshot %+v", status)
	}
}

func ptr(s string) *string { return &s }
