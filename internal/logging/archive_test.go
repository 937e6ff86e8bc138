package logging

import (
	"path/filepath"
	"testing"
)

func TestEventArchiveReplaysDroppedEvents(t *testing.T) {
	archive, err := NewEventArchive(filepath.Join(t.TempDir(), "logs", "twinkle.events"))
	if err != nil {
		t.Fatalf("NewEventArchive: %v", err)
	}
	defer archive.Close()

	hub := NewStreamHub(2)
	hub.AddSink(archive)
	for _, msg := range []string{"one", "two", "three", "four"} {
		hub.Publish(LogEvent{Message: msg})
	}
	if first := hub.FirstSequence(); first != 3 {
		t.Fatalf("expected hub to hold sequences 3..4, first=%d", first)
	}

	events, highest, err := archive.ReadSince(0, 2)
	if err != nil {
		t.Fatalf("ReadSince: %v", err)
	}
	if len(events) != 2 || events[0].Message != "one" || events[1].Sequence != 2 {
		t.Fatalf("unexpected archived events %+v", events)
	}
	if highest != 2 {
		t.Fatalf("expected highest 2 when limit stops the scan, got %d", highest)
	}

	events, highest, err = archive.ReadSince(3, 0)
	if err != nil || len(events) != 1 || events[0].Message != "four" || highest != 4 {
		t.Fatalf("ReadSince(3) = %+v %d %v", events, highest, err)
	}
}

func TestEventArchiveDisabled(t *testing.T) {
	archive, err := NewEventArchive("  ")
	if err != nil || archive != nil {
		t.Fatalf("expected nil archive, got %v %v", archive, err)
	}
	archive.Append(LogEvent{Message: "ignored"})
	if events, next, err := archive.ReadSince(5, 0); events != nil || next != 5 || err != nil {
		t.Fatalf("nil archive ReadSince = %v %d %v", events, next, err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
