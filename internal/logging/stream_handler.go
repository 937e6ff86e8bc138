package logging

import (
	"context"
	"log/slog"
	"strings"
)

// streamHandler publishes every record to a StreamHub before passing it on.
type streamHandler struct {
	next   slog.Handler
	hub    *StreamHub
	preset []slog.Attr
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, r slog.Record) error {
	h.hub.Publish(toLogEvent(r, h.preset))
	return h.next.Handle(ctx, r)
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	preset := make([]slog.Attr, 0, len(h.preset)+len(attrs))
	preset = append(preset, h.preset...)
	preset = append(preset, attrs...)
	return &streamHandler{next: h.next.WithAttrs(attrs), hub: h.hub, preset: preset}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{next: h.next.WithGroup(name), hub: h.hub}
}

// toLogEvent lifts the well-known keys into LogEvent fields. Call-site
// attributes override those bound with WithAttrs.
func toLogEvent(r slog.Record, preset []slog.Attr) LogEvent {
	evt := LogEvent{
		Timestamp: r.Time,
		Level:     strings.ToUpper(r.Level.String()),
		Message:   strings.TrimSpace(r.Message),
	}
	apply := func(a slog.Attr) bool {
		key := strings.TrimSpace(a.Key)
		value := plainValue(a.Value)
		switch key {
		case "":
		case FieldComponent:
			evt.Component = value
		case FieldFolder:
			evt.Folder = value
		case FieldEventType:
			evt.EventType = value
		case FieldCorrelationID:
			evt.CorrelationID = value
		default:
			if evt.Fields == nil {
				evt.Fields = make(map[string]string)
			}
			evt.Fields[key] = value
		}
		return true
	}
	for _, a := range preset {
		apply(a)
	}
	r.Attrs(apply)
	return evt
}
