package ipc

import (
	"time"

	"twinkle/internal/logging"
	"twinkle/internal/notifications"
)

// StatusRequest fetches daemon status.
type StatusRequest struct {
	CheckOracle bool `json:"check_oracle"`
}

// FolderStatus describes one persisted watch folder.
type FolderStatus struct {
	Path      string `json:"path"`
	Watching  bool   `json:"watching"`
	Subfolder string `json:"subfolder"`
}

// Stats mirrors the lifetime counters.
type Stats struct {
	FilesOrganized int     `json:"files_organized"`
	FoldersCreated int     `json:"folders_created"`
	TimeSavedHours float64 `json:"time_saved_hours"`
}

// OracleStatus describes the classification oracle.
type OracleStatus struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Checked  bool   `json:"checked"`
	Ready    bool   `json:"ready"`
	Detail   string `json:"detail"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running        bool           `json:"running"`
	PID            int            `json:"pid"`
	StartedAt      time.Time      `json:"started_at"`
	Folders        []FolderStatus `json:"folders"`
	Stats          Stats          `json:"stats"`
	HistoryLen     int            `json:"history_len"`
	Oracle         OracleStatus   `json:"oracle"`
	StoreBackend   string         `json:"store_backend"`
	StorePath      string         `json:"store_path"`
	LockPath       string         `json:"lock_path"`
	LogPath        string         `json:"log_path"`
	RescanSchedule string         `json:"rescan_schedule"`
	NextRescan     time.Time      `json:"next_rescan"`
}

// ListFoldersRequest lists watched folders.
type ListFoldersRequest struct{}

// ListFoldersResponse contains the persisted folders.
type ListFoldersResponse struct {
	Folders []FolderStatus `json:"folders"`
}

// AddFolderRequest starts watching a folder.
type AddFolderRequest struct {
	Path string `json:"path"`
}

// AddFolderResponse reports the normalized folder path.
type AddFolderResponse struct {
	Path  string `json:"path"`
	Added bool   `json:"added"`
}

// RemoveFolderRequest stops watching a folder.
type RemoveFolderRequest struct {
	Path string `json:"path"`
}

// RemoveFolderResponse reports whether the folder was persisted.
type RemoveFolderResponse struct {
	Path    string `json:"path"`
	Removed bool   `json:"removed"`
}

// RescanRequest re-reports files in one folder, or all when Path is empty.
type RescanRequest struct {
	Path string `json:"path"`
}

// RescanResponse lists the rescanned folders.
type RescanResponse struct {
	Folders []string `json:"folders"`
}

// Action is the wire form of a ledger action.
type Action struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Time   time.Time `json:"time"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to"`
	Folder string    `json:"folder,omitempty"`
}

// HistoryRequest fetches recorded actions. Limit <= 0 returns all.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse lists actions newest first.
type HistoryResponse struct {
	Actions []Action `json:"actions"`
}

// UndoRequest reverses the most recent action.
type UndoRequest struct{}

// UndoResponse reports the undo outcome.
type UndoResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Action  *Action `json:"action,omitempty"`
}

// StatsRequest fetches lifetime counters.
type StatsRequest struct{}

// StatsResponse contains lifetime counters.
type StatsResponse struct {
	Stats Stats `json:"stats"`
}

// ActivityEntry is one activity feed entry.
type ActivityEntry = notifications.Activity

// ActivityRequest fetches recent events. Limit <= 0 returns all buffered.
type ActivityRequest struct {
	Limit int `json:"limit"`
}

// ActivityResponse lists events newest first.
type ActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
}

// ClassifyRequest classifies a file without moving it.
type ClassifyRequest struct {
	Path string `json:"path"`
}

// ClassifyResponse carries the verdict and the would-be destination.
type ClassifyResponse struct {
	Category        string  `json:"category"`
	Confidence      float64 `json:"confidence"`
	SuggestedFolder string  `json:"suggested_folder"`
	Reasoning       string  `json:"reasoning"`
	Source          string  `json:"source"`
	Destination     string  `json:"destination"`
}

// LogEvent is a structured log line from the daemon's stream hub.
type LogEvent = logging.LogEvent

// LogsRequest fetches log events after Since. When Since is zero and Tail is
// positive, the most recent Tail events are returned instead.
type LogsRequest struct {
	Since      uint64 `json:"since"`
	Tail       int    `json:"tail"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
}

// LogsResponse returns log events and the next cursor.
type LogsResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
