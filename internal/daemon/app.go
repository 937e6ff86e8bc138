package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"twinkle/internal/classifier"
	"twinkle/internal/config"
	"twinkle/internal/ledger"
	"twinkle/internal/logging"
	"twinkle/internal/notifications"
	"twinkle/internal/organizer"
	"twinkle/internal/store"
	"twinkle/internal/watch"
)

// App bundles the collaborators built once per process.
type App struct {
	Config     *config.Config
	Store      *store.Store
	Ledger     *ledger.Ledger
	Classifier *classifier.Classifier
	Registry   *watch.Registry
	Pipeline   *organizer.Pipeline
	Feed       *notifications.Feed
	Notifier   notifications.Service

	oracle oracleBackend
}

// NewApp opens the store and wires the organize engine from cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	st, err := store.OpenFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	app := &App{
		Config: cfg,
		Store:  st,
		Ledger: ledger.New(st, logger),
		Feed:   notifications.NewFeed(cfg.Notifications.ActivityLimit),
		oracle: newOracleBackend(cfg, logger),
	}
	app.Notifier = notifications.NewService(cfg, app.Feed)
	app.Classifier = classifier.New(app.oracle.oracle, classifier.Options{
		Timeout:        cfg.ClassifierTimeout(),
		SampleChars:    cfg.Classifier.SampleChars,
		MaxSampleBytes: cfg.Classifier.MaxSampleBytes,
		Provider:       app.oracle.provider,
	}, logger)

	filter := watch.NewFilter(cfg.OrganizedFolderNames(), cfg.Watch.IgnorePatterns)
	app.Registry = watch.New(watch.Options{
		StabilityThreshold: cfg.StabilityThreshold(),
		PollInterval:       cfg.PollInterval(),
		EventBuffer:        cfg.Watch.EventBuffer,
		Filter:             filter,
	}, watch.Signals{
		FolderAdded:   app.folderSignal(notifications.EventFolderAdded),
		FolderRemoved: app.folderSignal(notifications.EventFolderRemoved),
	}, logger)

	app.Pipeline = organizer.New(organizer.Dependencies{
		Classifier: app.Classifier,
		Store:      st,
		Ledger:     app.Ledger,
		Filter:     filter,
		Notifier:   app.Notifier,
	}, organizer.Options{
		DefaultSubfolder: cfg.Organizer.DefaultSubfolder,
		Rules:            cfg.Organizer.Rules,
	}, logger)
	return app, nil
}

func (a *App) folderSignal(event notifications.Event) func(string) {
	return func(folder string) {
		_ = a.Notifier.Publish(context.Background(), event, notifications.Payload{"folder": folder})
	}
}

// Close stops every folder watch and releases the store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.Registry != nil {
		a.Registry.Destroy()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
