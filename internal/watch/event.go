package watch

import (
	"fmt"
	"time"
)

// EventKind classifies a canonical event.
type EventKind string

const (
	Created  EventKind = "created"
	Modified EventKind = "modified"
	Removed  EventKind = "removed"
)

// Event is a normalized filesystem change for one file in a watched folder.
type Event struct {
	Kind   EventKind `json:"kind"`
	Path   string    `json:"path"`
	Folder string    `json:"folder"`
	Time   time.Time `json:"time"`
}

// WatchError reports a failure of one folder's watch.
type WatchError struct {
	Folder string
	Err    error
	Time   time.Time
}

func (e WatchError) Error() string {
	return fmt.Sprintf("watch %s: %v", e.Folder, e.Err)
}

func (e WatchError) Unwrap() error {
	return e.Err
}
