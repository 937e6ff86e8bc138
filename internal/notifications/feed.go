package notifications

import (
	"context"
	"maps"
	"sync"
	"time"
)

const defaultFeedCapacity = 200

// Activity is one entry in the activity feed.
type Activity struct {
	Sequence uint64         `json:"sequence"`
	Time     time.Time      `json:"time"`
	Event    Event          `json:"event"`
	Message  string         `json:"message"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// Feed keeps the most recent events in a fixed-size ring.
type Feed struct {
	mu       sync.Mutex
	entries  []Activity
	next     int
	full     bool
	sequence uint64
}

// NewFeed returns a feed holding up to capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = defaultFeedCapacity
	}
	return &Feed{entries: make([]Activity, capacity)}
}

// Publish records the event. It never fails.
func (f *Feed) Publish(_ context.Context, event Event, payload Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	f.entries[f.next] = Activity{
		Sequence: f.sequence,
		Time:     time.Now().UTC(),
		Event:    event,
		Message:  Describe(event, payload),
		Payload:  maps.Clone(map[string]any(payload)),
	}
	f.next = (f.next + 1) % len(f.entries)
	if f.next == 0 {
		f.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (f *Feed) Recent(limit int) []Activity {
	f.mu.Lock()
	defer f.mu.Unlock()

	size := f.next
	if f.full {
		size = len(f.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]Activity, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.entries)) % len(f.entries)
		out = append(out, f.entries[idx])
	}
	return out
}
