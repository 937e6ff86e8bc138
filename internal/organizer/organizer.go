package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"twinkle/internal/classifier"
	"twinkle/internal/ledger"
	"twinkle/internal/logging"
	"twinkle/internal/notifications"
	"twinkle/internal/placement"
	"twinkle/internal/services"
	"twinkle/internal/store"
	"twinkle/internal/watch"
)

// DefaultSubfolder is the organized root used when no rule matches.
const DefaultSubfolder = "Organized"

// Classifier produces a verdict for a file. classifier.Classifier satisfies it.
type Classifier interface {
	Classify(ctx context.Context, path string) classifier.Classification
}

// Options controls destination layout.
type Options struct {
	DefaultSubfolder string
	// Rules maps a watched folder's base name to its organized root.
	Rules map[string]string
}

// Dependencies are the collaborators a Pipeline drives.
type Dependencies struct {
	Classifier Classifier
	Store      *store.Store
	Ledger     *ledger.Ledger
	Filter     *watch.Filter
	Notifier   notifications.Service
}

// Result describes the outcome of one Organize call.
type Result struct {
	Skipped        bool                      `json:"skipped"`
	Reason         string                    `json:"reason,omitempty"`
	Classification classifier.Classification `json:"classification"`
	Destination    string                    `json:"destination,omitempty"`
	FolderCreated  bool                      `json:"folderCreated"`
	Action         *ledger.Move              `json:"action,omitempty"`
}

// Pipeline organizes files and undoes organize actions.
type Pipeline struct {
	classifier Classifier
	store      *store.Store
	ledger     *ledger.Ledger
	filter     *watch.Filter
	notifier   notifications.Service
	opts       Options
	logger     *slog.Logger

	mu sync.Mutex

	restoredMu sync.Mutex
	restored   map[string]struct{}
}

// New builds a Pipeline.
func New(deps Dependencies, opts Options, logger *slog.Logger) *Pipeline {
	if strings.TrimSpace(opts.DefaultSubfolder) == "" {
		opts.DefaultSubfolder = DefaultSubfolder
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NoopService{}
	}
	if deps.Filter == nil {
		deps.Filter = watch.NewFilter([]string{opts.DefaultSubfolder}, nil)
	}
	if deps.Ledger == nil && deps.Store != nil {
		deps.Ledger = ledger.New(deps.Store, logger)
	}
	return &Pipeline{
		classifier: deps.Classifier,
		store:      deps.Store,
		ledger:     deps.Ledger,
		filter:     deps.Filter,
		notifier:   deps.Notifier,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "organizer"),
		restored:   make(map[string]struct{}),
	}
}

// RootSubfolder returns the organized root for a watched folder path.
func (p *Pipeline) RootSubfolder(folder string) string {
	if root, ok := p.opts.Rules[filepath.Base(folder)]; ok && strings.TrimSpace(root) != "" {
		return root
	}
	return p.opts.DefaultSubfolder
}

// Organize handles one watch event. Only Created events for unfiltered files
// are acted on; everything else returns a skipped Result. Move and folder
// creation failures are returned as organize errors and are not retried.
func (p *Pipeline) Organize(ctx context.Context, event watch.Event) (Result, error) {
	path := filepath.Clean(event.Path)
	folder := event.Folder
	if folder == "" {
		folder = filepath.Dir(path)
	}
	ctx = services.WithFolder(ctx, folder)
	logger := logging.WithContext(ctx, p.logger).With(logging.String("file", path))

	if event.Kind == watch.Removed {
		p.forgetRestored(path)
	}
	if event.Kind != watch.Created {
		return skipped("not a create event"), nil
	}
	if p.filter.Match(path) {
		return skipped("filtered"), nil
	}
	if p.isRestored(path) {
		logger.Debug("skipping file restored by undo", logging.String(logging.FieldEventType, "organize_skipped"))
		return skipped("restored by undo"), nil
	}
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return skipped("file no longer exists"), nil
	}

	verdict := p.classifier.Classify(ctx, path)

	dir := filepath.Dir(path)
	root := p.RootSubfolder(dir)
	targetDir := filepath.Join(dir, root, verdict.SuggestedFolder)

	result, err := p.place(ctx, path, folder, targetDir, verdict)
	if err != nil {
		p.reportFailure(ctx, logger, path, err)
		return result, err
	}

	logger.Info("file organized",
		logging.String(logging.FieldEventType, "file_organized"),
		logging.String("destination", result.Destination),
		logging.String("category", verdict.Category),
		logging.String("classification_source", string(verdict.Source)),
		logging.Float64("confidence", verdict.Confidence),
		logging.Bool("folder_created", result.FolderCreated),
	)
	p.publish(ctx, notifications.EventFileOrganized, notifications.Payload{
		"source":      path,
		"destination": result.Destination,
		"subfolder":   filepath.Join(root, verdict.SuggestedFolder),
		"category":    verdict.Category,
		"confidence":  verdict.Confidence,
		"reasoning":   verdict.Reasoning,
		"origin":      string(verdict.Source),
		"folder":      folder,
	})
	p.publishStats(ctx)
	return result, nil
}

// Preview classifies path and reports where Organize would place it without
// touching the filesystem or the ledger.
func (p *Pipeline) Preview(ctx context.Context, path string) (classifier.Classification, string) {
	path = filepath.Clean(path)
	verdict := p.classifier.Classify(ctx, path)
	dir := filepath.Dir(path)
	target := filepath.Join(dir, p.RootSubfolder(dir), verdict.SuggestedFolder, filepath.Base(path))
	return verdict, placement.Resolve(target)
}

func (p *Pipeline) place(ctx context.Context, path, folder, targetDir string, verdict classifier.Classification) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := Result{Classification: verdict}

	created, err := ensureDir(targetDir)
	if err != nil {
		return result, services.Wrap(services.ErrOrganize, "organizer", "create folder", targetDir, err)
	}
	if created {
		result.FolderCreated = true
		if err := p.store.Update(ctx, func(rec *store.Record) error {
			rec.Stats.FoldersCreated++
			return nil
		}); err != nil {
			return result, err
		}
	}

	final, err := placement.Move(path, filepath.Join(targetDir, filepath.Base(path)))
	if err != nil {
		return result, services.Wrap(services.ErrOrganize, "organizer", "move file", path, err)
	}
	result.Destination = final

	action := ledger.NewMove(path, final, folder)
	if err := p.store.Update(ctx, func(rec *store.Record) error {
		ledger.Push(rec, action)
		rec.Stats.RecordOrganized(1)
		return nil
	}); err != nil {
		return result, fmt.Errorf("file moved to %s but not recorded: %w", final, err)
	}
	result.Action = &action
	return result, nil
}

func (p *Pipeline) reportFailure(ctx context.Context, logger *slog.Logger, path string, err error) {
	hint, impact := failureHint(err)
	logging.ErrorWithContext(logger, "organize failed", "organize_failed",
		logging.Error(err),
		logging.String("error_kind", services.Kind(err)),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, impact),
	)
	p.publish(ctx, notifications.EventOrganizeFailed, notifications.Payload{
		"path":  path,
		"error": err.Error(),
		"kind":  services.Kind(err),
	})
}

func (p *Pipeline) publishStats(ctx context.Context) {
	stats := p.store.Stats()
	p.publish(ctx, notifications.EventStatsUpdated, notifications.Payload{
		"filesOrganized": stats.FilesOrganized,
		"foldersCreated": stats.FoldersCreated,
		"timeSaved":      stats.TimeSavedHours,
	})
}

func (p *Pipeline) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := p.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(p.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ntfy topic and network reachability"),
		)
	}
}

func (p *Pipeline) markRestored(path string) {
	p.restoredMu.Lock()
	p.restored[path] = struct{}{}
	p.restoredMu.Unlock()
}

func (p *Pipeline) forgetRestored(path string) {
	p.restoredMu.Lock()
	delete(p.restored, path)
	p.restoredMu.Unlock()
}

func (p *Pipeline) isRestored(path string) bool {
	p.restoredMu.Lock()
	defer p.restoredMu.Unlock()
	_, ok := p.restored[path]
	return ok
}

// ensureDir creates dir and its parents. It reports whether dir itself was
// created by this call.
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return false, err
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func skipped(reason string) Result {
	return Result{Skipped: true, Reason: reason}
}
