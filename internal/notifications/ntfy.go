package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"twinkle/internal/textutil"
)

const userAgent = "Twinkle-Go/0.1.0"

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func newNtfy(endpoint string, timeout time.Duration, enabled map[Event]bool) *ntfyService {
	return &ntfyService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		enabled:  enabled,
	}
}

// Publish sends enabled events to the ntfy topic and ignores the rest.
func (n *ntfyService) Publish(ctx context.Context, event Event, p Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	return n.send(ctx, n.format(event, p))
}

func (n *ntfyService) format(event Event, p Payload) payload {
	data := payload{
		title:   "Twinkle - " + textutil.DisplayLabel(string(event)),
		message: Describe(event, p),
		tags:    []string{"twinkle"},
	}
	switch event {
	case EventFileOrganized:
		data.message = "✨ " + data.message
		data.tags = append(data.tags, "organize", "completed")
		data.priority = "low"
	case EventFolderAdded, EventFolderRemoved:
		data.message = "👀 " + data.message
		data.tags = append(data.tags, "folders")
	case EventUndoCompleted:
		data.message = "↩️ " + data.message
		data.tags = append(data.tags, "undo")
	case EventOrganizeFailed, EventWatchError:
		data.message = "❌ " + data.message
		data.tags = append(data.tags, "error", "alert")
		data.priority = "high"
	}
	return data
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
