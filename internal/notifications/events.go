package notifications

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Event identifies a published notification.
type Event string

const (
	EventFolderAdded    Event = "folder_added"
	EventFolderRemoved  Event = "folder_removed"
	EventFileEvent      Event = "file_event"
	EventFileOrganized  Event = "file_organized"
	EventOrganizeFailed Event = "organize_failed"
	EventStatsUpdated   Event = "stats_updated"
	EventUndoCompleted  Event = "undo_completed"
	EventWatchError     Event = "watch_error"
)

// Payload carries event details. Values are rendered with fmt.Sprint.
type Payload map[string]any

// String returns the trimmed string form of key, or "".
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Describe renders a one-line human summary of an event.
func Describe(event Event, payload Payload) string {
	switch event {
	case EventFolderAdded:
		return fmt.Sprintf("Watching %s", payload.String("folder"))
	case EventFolderRemoved:
		return fmt.Sprintf("Stopped watching %s", payload.String("folder"))
	case EventFileEvent:
		return fmt.Sprintf("File %s: %s", payload.String("kind"), filepath.Base(payload.String("path")))
	case EventFileOrganized:
		msg := fmt.Sprintf("Organized %s into %s", filepath.Base(payload.String("source")), payload.String("subfolder"))
		if category := payload.String("category"); category != "" {
			msg += fmt.Sprintf(" (%s)", category)
		}
		return msg
	case EventOrganizeFailed:
		return fmt.Sprintf("Failed to organize %s: %s", filepath.Base(payload.String("path")), orUnknown(payload.String("error")))
	case EventStatsUpdated:
		return fmt.Sprintf("%s files organized, %s folders created", orZero(payload.String("filesOrganized")), orZero(payload.String("foldersCreated")))
	case EventUndoCompleted:
		msg := fmt.Sprintf("Undo %s", orUnknown(payload.String("status")))
		if detail := payload.String("message"); detail != "" {
			msg += ": " + detail
		}
		return msg
	case EventWatchError:
		return fmt.Sprintf("Watch error in %s: %s", payload.String("folder"), orUnknown(payload.String("error")))
	default:
		return string(event)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
