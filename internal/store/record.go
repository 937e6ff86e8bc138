package store

import (
	"slices"
	"time"
)

// TimeSavedPerFile is the estimated hours saved for each organized file.
const TimeSavedPerFile = 0.05

// EntryType names the kind of a history entry.
type EntryType string

const (
	EntryMove         EntryType = "move"
	EntryCreateFolder EntryType = "create-folder"
)

// Stats are cumulative organizer counters.
type Stats struct {
	FilesOrganized int     `json:"filesOrganized"`
	FoldersCreated int     `json:"foldersCreated"`
	TimeSavedHours float64 `json:"timeSaved"`
}

// RecordOrganized counts organized files. The file count and time saved
// always move together.
func (s *Stats) RecordOrganized(count int) {
	s.FilesOrganized += count
	s.TimeSavedHours += float64(count) * TimeSavedPerFile
}

// Entry is the persisted form of one history action.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EntryType `json:"type"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Folder    string    `json:"folder,omitempty"`
}

// Record is the complete persisted state. History is newest first.
type Record struct {
	Folders []string `json:"folders"`
	Stats   Stats    `json:"stats"`
	History []Entry  `json:"fileHistory"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	return Record{
		Folders: slices.Clone(r.Folders),
		Stats:   r.Stats,
		History: slices.Clone(r.History),
	}
}

// HasFolder reports whether path is in the folder list.
func (r *Record) HasFolder(path string) bool {
	return slices.Contains(r.Folders, path)
}

// AddFolder appends path unless present. It reports whether the list changed.
func (r *Record) AddFolder(path string) bool {
	if r.HasFolder(path) {
		return false
	}
	r.Folders = append(r.Folders, path)
	return true
}

// RemoveFolder drops every occurrence of path. It reports whether the list changed.
func (r *Record) RemoveFolder(path string) bool {
	before := len(r.Folders)
	r.Folders = slices.DeleteFunc(r.Folders, func(f string) bool { return f == path })
	return len(r.Folders) != before
}

func (r *Record) normalize() {
	if r.Folders == nil {
		r.Folders = []string{}
	}
	if r.History == nil {
		r.History = []Entry{}
	}
}
