package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"twinkle/internal/config"
)

// Service defines the notification surface exposed to organizer components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds the configured sinks. feed may be nil. When neither a feed
// nor an ntfy topic is available, a noop implementation is returned.
func NewService(cfg *config.Config, feed *Feed) Service {
	var sinks []Service
	if feed != nil {
		sinks = append(sinks, feed)
	}
	if ntfy := newNtfyService(cfg); ntfy != nil {
		sinks = append(sinks, ntfy)
	}
	switch len(sinks) {
	case 0:
		return NoopService{}
	case 1:
		return sinks[0]
	default:
		return Fanout(sinks...)
	}
}

// Fanout publishes to every service and joins their errors.
func Fanout(services ...Service) Service {
	return fanoutService(services)
}

type fanoutService []Service

func (f fanoutService) Publish(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, svc := range f {
		if svc == nil {
			continue
		}
		if err := svc.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopService discards every event.
type NoopService struct{}

func (NoopService) Publish(context.Context, Event, Payload) error { return nil }

func newNtfyService(cfg *config.Config) *ntfyService {
	if cfg == nil {
		return nil
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return nil
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	enabled := map[Event]bool{
		EventFileOrganized:  cfg.Notifications.Organized,
		EventFolderAdded:    cfg.Notifications.Folders,
		EventFolderRemoved:  cfg.Notifications.Folders,
		EventUndoCompleted:  cfg.Notifications.Undo,
		EventOrganizeFailed: cfg.Notifications.Errors,
		EventWatchError:     cfg.Notifications.Errors,
	}
	return newNtfy(topic, timeout, enabled)
}
