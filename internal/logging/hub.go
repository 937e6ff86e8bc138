package logging

import (
	"context"
	"sync"
	"time"
)

const defaultHubCapacity = 512

// LogEvent is one log record as served to `twinkle logs` and the activity
// tooling.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Folder        string            `json:"folder,omitempty"`
	EventType     string            `json:"event_type,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogEventSink receives every event a hub publishes.
type LogEventSink interface {
	Append(LogEvent)
}

// StreamHub keeps the most recent events in a fixed ring and lets readers
// page through them by sequence number or block until new ones arrive.
type StreamHub struct {
	mu      sync.Mutex
	arrived chan struct{}
	ring    []LogEvent
	head    int // index of the oldest event
	size    int
	lastSeq uint64
	sinks   []LogEventSink
}

// NewStreamHub returns a hub holding up to capacity events (512 when
// capacity is not positive).
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = defaultHubCapacity
	}
	return &StreamHub{ring: make([]LogEvent, capacity), arrived: make(chan struct{})}
}

// AddSink registers sink for all later events.
func (h *StreamHub) AddSink(sink LogEventSink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Publish assigns the next sequence number to evt, stores it, and hands it
// to the sinks.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.lastSeq++
	evt.Sequence = h.lastSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if h.size < len(h.ring) {
		h.ring[(h.head+h.size)%len(h.ring)] = evt
		h.size++
	} else {
		h.ring[h.head] = evt
		h.head = (h.head + 1) % len(h.ring)
	}
	close(h.arrived)
	h.arrived = make(chan struct{})
	sinks := h.sinks
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
}

// Fetch returns up to limit buffered events with a sequence above since,
// oldest first, plus the latest sequence published. With wait set, Fetch
// blocks until such an event exists or ctx ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	for {
		h.mu.Lock()
		events := h.after(since, limit)
		last, arrived := h.lastSeq, h.arrived
		h.mu.Unlock()

		if len(events) > 0 || !wait {
			return events, last, ctx.Err()
		}
		select {
		case <-ctx.Done():
			return nil, last, ctx.Err()
		case <-arrived:
		}
	}
}

// Tail returns the newest limit events, oldest first, and the latest
// sequence published.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > h.size {
		limit = h.size
	}
	return h.copyRange(h.size-limit, limit), h.lastSeq
}

// FirstSequence reports the oldest buffered sequence, or the latest
// published one when the ring is empty.
func (h *StreamHub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return h.lastSeq
	}
	return h.ring[h.head].Sequence
}

func (h *StreamHub) after(since uint64, limit int) []LogEvent {
	if h.size == 0 || since >= h.lastSeq {
		return nil
	}
	oldest := h.ring[h.head].Sequence
	skip := 0
	if since >= oldest {
		skip = int(since - oldest + 1)
	}
	n := h.size - skip
	if limit > 0 && limit < n {
		n = limit
	}
	return h.copyRange(skip, n)
}

// copyRange copies n events starting at logical offset from.
func (h *StreamHub) copyRange(from, n int) []LogEvent {
	if n <= 0 {
		return nil
	}
	out := make([]LogEvent, n)
	for i := range out {
		out[i] = h.ring[(h.head+from+i)%len(h.ring)]
	}
	return out
}
