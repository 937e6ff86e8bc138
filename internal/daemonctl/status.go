package daemonctl

import (
	"context"
	"errors"
	"time"

	"twinkle/internal/config"
	"twinkle/internal/ipc"
	"twinkle/internal/logging"
	"twinkle/internal/store"
)

// BuildStatusSnapshot asks the daemon for status. When the daemon does not
// answer it reads the persisted record instead and reports live=false.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config, checkOracle bool) (*ipc.StatusResponse, bool, error) {
	if client, err := ipc.Dial(socketPath); err == nil {
		resp, statusErr := client.Status(checkOracle)
		_ = client.Close()
		if statusErr == nil {
			return resp, true, nil
		}
	}
	if cfg == nil {
		return nil, false, errors.New("configuration not available")
	}
	resp, err := offlineStatus(ctx, cfg)
	return resp, false, err
}

func offlineStatus(ctx context.Context, cfg *config.Config) (*ipc.StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	st, err := store.OpenFromConfig(ctx, cfg, logging.NewNop())
	if err != nil {
		return nil, err
	}
	defer st.Close()

	rec := st.Snapshot()
	resp := &ipc.StatusResponse{
		StoreBackend:   cfg.Storage.Backend,
		StorePath:      cfg.Storage.Path,
		LockPath:       cfg.LockPath(),
		RescanSchedule: cfg.Watch.RescanSchedule,
		HistoryLen:     len(rec.History),
		Oracle:         ipc.OracleStatus{Provider: cfg.Classifier.Provider},
		Stats: ipc.Stats{
			FilesOrganized: rec.Stats.FilesOrganized,
			FoldersCreated: rec.Stats.FoldersCreated,
			TimeSavedHours: rec.Stats.TimeSavedHours,
		},
	}
	for _, folder := range rec.Folders {
		resp.Folders = append(resp.Folders, ipc.FolderStatus{Path: folder})
	}
	return resp, nil
}
