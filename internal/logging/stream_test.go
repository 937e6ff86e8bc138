package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestStreamHandler_WithAttrs(t *testing.T) {
	hub := NewStreamHub(100)

	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	logger := slog.New(handler).With(slog.String(FieldFolder, "/home/u/Downloads"))
	logger.Info("file organized", slog.String("extra", "value"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Folder != "/home/u/Downloads" {
		t.Errorf("expected folder from WithAttrs, got %q", events[0].Folder)
	}
	if events[0].Message != "file organized" {
		t.Errorf("expected message='file organized', got %q", events[0].Message)
	}
	if events[0].Fields["extra"] != "value" {
		t.Errorf("expected extra field, got %v", events[0].Fields)
	}
}

func TestStreamHandler_NestedWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	logger := slog.New(handler).
		With(slog.String(FieldComponent, "organizer")).
		With(slog.String(FieldFolder, "/data/Desktop")).
		With(slog.String(FieldCorrelationID, "req-1"))

	logger.Info("classified", slog.String(FieldEventType, "classification_completed"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	evt := events[0]
	if evt.Component != "organizer" {
		t.Errorf("expected component='organizer', got %q", evt.Component)
	}
	if evt.Folder != "/data/Desktop" {
		t.Errorf("expected folder='/data/Desktop', got %q", evt.Folder)
	}
	if evt.CorrelationID != "req-1" {
		t.Errorf("expected correlation id, got %q", evt.CorrelationID)
	}
	if evt.EventType != "classification_completed" {
		t.Errorf("expected event type, got %q", evt.EventType)
	}
}

func TestStreamHandler_CallSiteOverridesWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	logger := slog.New(handler).With(slog.String(FieldFolder, "original"))
	logger.Info("message", slog.String(FieldFolder, "overridden"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Folder != "overridden" {
		t.Errorf("expected folder='overridden', got %q", events[0].Folder)
	}
}

func TestStreamHandler_NilHub(t *testing.T) {
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, nil)

	if handler != base {
		t.Errorf("expected base handler when hub is nil")
	}
}

func TestStreamHandler_Enabled(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := newStreamHandler(base, hub)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected INFO to be disabled when base level is WARN")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected WARN to be enabled when base level is WARN")
	}
}

func TestStreamHubCapacityAndFetch(t *testing.T) {
	hub := NewStreamHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(LogEvent{Message: "m"})
	}

	if first := hub.FirstSequence(); first != 3 {
		t.Fatalf("expected oldest buffered sequence 3, got %d", first)
	}

	events, next, err := hub.Fetch(context.Background(), 3, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 4 || events[1].Sequence != 5 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if next != 5 {
		t.Fatalf("expected next=5, got %d", next)
	}
}

func TestStreamHubTailAfterWrap(t *testing.T) {
	hub := NewStreamHub(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		hub.Publish(LogEvent{Message: msg})
	}
	events, last := hub.Tail(2)
	if last != 5 || len(events) != 2 || events[0].Message != "d" || events[1].Message != "e" {
		t.Fatalf("unexpected tail %+v last=%d", events, last)
	}
	all, _ := hub.Tail(0)
	if len(all) != 3 || all[0].Message != "c" {
		t.Fatalf("unexpected full tail %+v", all)
	}
	events, _, _ = hub.Fetch(context.Background(), 0, 2, false)
	if len(events) != 2 || events[0].Sequence != 3 || events[1].Sequence != 4 {
		t.Fatalf("expected oldest buffered events first, got %+v", events)
	}
}

func TestStreamHubFetchWaitsForPublish(t *testing.T) {
	hub := NewStreamHub(8)
	go func() {
		time.Sleep(20 * time.Millisecond)
		hub.Publish(LogEvent{Message: "late"})
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events, last, err := hub.Fetch(ctx, 0, 10, true)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 1 || events[0].Message != "late" || last != 1 {
		t.Fatalf("unexpected events %+v last=%d", events, last)
	}
}

func TestStreamHubFetchWaitHonoursContext(t *testing.T) {
	hub := NewStreamHub(8)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := hub.Fetch(ctx, 0, 10, true); err == nil {
		t.Fatal("expected deadline error")
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
