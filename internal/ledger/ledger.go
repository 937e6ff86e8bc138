package ledger

import (
	"context"
	"log/slog"

	"twinkle/internal/logging"
	"twinkle/internal/store"
)

// MaxEntries bounds the history length.
const MaxEntries = 100

// Ledger reads and mutates the action history held in a store.
type Ledger struct {
	store  *store.Store
	logger *slog.Logger
}

// New returns a Ledger over s.
func New(s *store.Store, logger *slog.Logger) *Ledger {
	return &Ledger{store: s, logger: logging.NewComponentLogger(logger, "ledger")}
}

// Push prepends a to rec's history and drops entries beyond MaxEntries. It is
// meant to run inside store.Update alongside related record changes.
func Push(rec *store.Record, a Action) {
	history := make([]store.Entry, 0, min(len(rec.History)+1, MaxEntries))
	history = append(history, a.entry())
	for _, e := range rec.History {
		if len(history) == MaxEntries {
			break
		}
		history = append(history, e)
	}
	rec.History = history
}

// Append records a in its own save.
func (l *Ledger) Append(ctx context.Context, a Action) error {
	return l.store.Update(ctx, func(rec *store.Record) error {
		Push(rec, a)
		return nil
	})
}

// Pop removes and returns the newest action. ok is false when the history is
// empty. An entry with an unknown type is still removed and reported as err.
func (l *Ledger) Pop(ctx context.Context) (action Action, ok bool, err error) {
	var popped store.Entry
	err = l.store.Update(ctx, func(rec *store.Record) error {
		if len(rec.History) == 0 {
			return nil
		}
		popped = rec.History[0]
		rec.History = rec.History[1:]
		ok = true
		return nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	action, err = FromEntry(popped)
	if err != nil {
		logging.WarnWithContext(l.logger, "discarded unreadable history entry", "history_entry_invalid",
			logging.String("entry_id", popped.ID),
			logging.String("entry_type", string(popped.Type)),
			logging.Error(err),
		)
		return nil, true, err
	}
	return action, true, nil
}

// List returns the history newest first. Entries of unknown type are skipped.
func (l *Ledger) List() []Action {
	rec := l.store.Snapshot()
	out := make([]Action, 0, len(rec.History))
	for _, e := range rec.History {
		a, err := FromEntry(e)
		if err != nil {
			l.logger.Debug("skipping unreadable history entry", logging.String("entry_id", e.ID), logging.Error(err))
			continue
		}
		out = append(out, a)
	}
	return out
}

// Len returns the number of stored entries.
func (l *Ledger) Len() int {
	return len(l.store.Snapshot().History)
}
