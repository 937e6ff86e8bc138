package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"twinkle/internal/store"
)

// Action is a recorded organizer action. Implemented by Move and CreateFolder.
type Action interface {
	ActionID() string
	ActionTime() time.Time
	// OriginFolder is the watched folder the action happened in.
	OriginFolder() string
	entry() store.Entry
}

// Move records a file relocation from Source to Destination.
type Move struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Origin      string    `json:"origin"`
}

func (m Move) ActionID() string      { return m.ID }
func (m Move) ActionTime() time.Time { return m.Time }
func (m Move) OriginFolder() string  { return m.Origin }

func (m Move) entry() store.Entry {
	return store.Entry{ID: m.ID, Timestamp: m.Time, Type: store.EntryMove, From: m.Source, To: m.Destination, Folder: m.Origin}
}

// CreateFolder records the creation of Path. It cannot be undone.
type CreateFolder struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Path   string    `json:"path"`
	Origin string    `json:"origin"`
}

func (c CreateFolder) ActionID() string      { return c.ID }
func (c CreateFolder) ActionTime() time.Time { return c.Time }
func (c CreateFolder) OriginFolder() string  { return c.Origin }

func (c CreateFolder) entry() store.Entry {
	return store.Entry{ID: c.ID, Timestamp: c.Time, Type: store.EntryCreateFolder, To: c.Path, Folder: c.Origin}
}

// NewMove builds a Move stamped with a fresh id and the current time.
func NewMove(source, destination, origin string) Move {
	return Move{ID: NewID(), Time: time.Now().UTC(), Source: source, Destination: destination, Origin: origin}
}

// NewCreateFolder builds a CreateFolder stamped with a fresh id and the current time.
func NewCreateFolder(path, origin string) CreateFolder {
	return CreateFolder{ID: NewID(), Time: time.Now().UTC(), Path: path, Origin: origin}
}

// NewID returns a time-ordered unique action id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Kind returns the persisted type name of a.
func Kind(a Action) store.EntryType {
	return a.entry().Type
}

// FromEntry converts a persisted entry back into an Action.
func FromEntry(e store.Entry) (Action, error) {
	switch e.Type {
	case store.EntryMove:
		return Move{ID: e.ID, Time: e.Timestamp, Source: e.From, Destination: e.To, Origin: e.Folder}, nil
	case store.EntryCreateFolder:
		return CreateFolder{ID: e.ID, Time: e.Timestamp, Path: e.To, Origin: e.Folder}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q in entry %s", e.Type, e.ID)
	}
}

// ToEntry converts a into its persisted form.
func ToEntry(a Action) store.Entry {
	return a.entry()
}
