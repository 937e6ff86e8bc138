package organizer

import (
	"context"
	"fmt"
	"path/filepath"

	"twinkle/internal/ledger"
	"twinkle/internal/logging"
	"twinkle/internal/notifications"
	"twinkle/internal/placement"
	"twinkle/internal/services"
)

// UndoStatus is the outcome of an undo request.
type UndoStatus string

const (
	NothingToUndo UndoStatus = "nothing_to_undo"
	Undone        UndoStatus = "undone"
	NotReversible UndoStatus = "not_reversible"
	Failed        UndoStatus = "failed"
)

// UndoResult describes what UndoLastAction did.
type UndoResult struct {
	Status  UndoStatus    `json:"status"`
	Action  ledger.Action `json:"action,omitempty"`
	Message string        `json:"message"`
}

// OK reports whether a file was moved back.
func (r UndoResult) OK() bool {
	return r.Status == Undone
}

// UndoLastAction pops the newest history entry and reverses it when it is a
// move. The entry stays popped even when the reverse move fails. The error
// return is reserved for persistence failures.
func (p *Pipeline) UndoLastAction(ctx context.Context) (UndoResult, error) {
	p.mu.Lock()
	result, err := p.undoLocked(ctx)
	p.mu.Unlock()
	if err != nil {
		return result, err
	}

	payload := notifications.Payload{
		"status":  string(result.Status),
		"message": result.Message,
	}
	if move, ok := result.Action.(ledger.Move); ok {
		payload["source"] = move.Source
		payload["destination"] = move.Destination
	}
	if result.Status != NothingToUndo {
		p.publish(ctx, notifications.EventUndoCompleted, payload)
	}
	return result, nil
}

func (p *Pipeline) undoLocked(ctx context.Context) (UndoResult, error) {
	logger := logging.WithContext(ctx, p.logger)

	action, ok, err := p.ledger.Pop(ctx)
	if !ok {
		if err != nil {
			return UndoResult{Status: Failed, Message: "could not read history"}, err
		}
		logger.Info("nothing to undo", logging.String(logging.FieldEventType, "undo_completed"))
		return UndoResult{Status: NothingToUndo, Message: "No actions to undo"}, nil
	}
	if err != nil {
		wrapped := services.Wrap(services.ErrUndo, "organizer", "undo", "history entry unreadable", err)
		logging.WarnWithContext(logger, "undo failed", "undo_failed", logging.Error(wrapped))
		return UndoResult{Status: Failed, Message: wrapped.Error()}, nil
	}

	switch a := action.(type) {
	case ledger.CreateFolder:
		logger.Info("popped folder creation; nothing to reverse",
			logging.String(logging.FieldEventType, "undo_completed"),
			logging.String("path", a.Path),
		)
		return UndoResult{Status: NotReversible, Action: a, Message: "Folder creation cannot be undone"}, nil
	case ledger.Move:
		return p.reverseMove(ctx, a), nil
	default:
		return UndoResult{Status: Failed, Action: action, Message: fmt.Sprintf("unsupported action %T", action)}, nil
	}
}

func (p *Pipeline) reverseMove(ctx context.Context, move ledger.Move) UndoResult {
	logger := logging.WithContext(services.WithFolder(ctx, move.Origin), p.logger)

	p.markRestored(move.Source)
	if err := placement.Restore(move.Destination, move.Source); err != nil {
		p.forgetRestored(move.Source)
		wrapped := services.Wrap(services.ErrUndo, "organizer", "restore", move.Destination, err)
		logging.WarnWithContext(logger, "undo failed", "undo_failed",
			logging.Error(wrapped),
			logging.String("source", move.Source),
			logging.String("destination", move.Destination),
			logging.String(logging.FieldErrorHint, "the organized file was moved, deleted, or its original name is taken"),
			logging.String(logging.FieldImpact, "history entry discarded; file left where it is"),
		)
		return UndoResult{Status: Failed, Action: move, Message: wrapped.Error()}
	}

	logger.Info("undo completed",
		logging.String(logging.FieldEventType, "undo_completed"),
		logging.String("restored", move.Source),
		logging.String("from", move.Destination),
	)
	return UndoResult{
		Status:  Undone,
		Action:  move,
		Message: fmt.Sprintf("Moved %s back to %s", filepath.Base(move.Source), filepath.Dir(move.Source)),
	}
}
