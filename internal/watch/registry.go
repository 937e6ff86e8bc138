package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"twinkle/internal/logging"
	"twinkle/internal/services"
)

const (
	defaultStabilityThreshold = time.Second
	defaultPollInterval       = 100 * time.Millisecond
	defaultEventBuffer        = 256
	errorBuffer               = 32
)

// ErrDestroyed is returned by operations on a destroyed Registry.
var ErrDestroyed = errors.New("watch registry destroyed")

// Options configures a Registry.
type Options struct {
	StabilityThreshold time.Duration
	PollInterval       time.Duration
	EventBuffer        int
	Filter             *Filter
}

// Signals are invoked after the folder set changes. Either may be nil.
type Signals struct {
	FolderAdded   func(path string)
	FolderRemoved func(path string)
}

// Registry tracks the set of watched folders.
type Registry struct {
	opts    Options
	signals Signals
	logger  *slog.Logger

	mu        sync.Mutex
	watches   map[string]*folderWatch
	destroyed bool

	events chan Event
	errs   chan WatchError
}

// New returns an empty Registry.
func New(opts Options, signals Signals, logger *slog.Logger) *Registry {
	if opts.StabilityThreshold <= 0 {
		opts.StabilityThreshold = defaultStabilityThreshold
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	if opts.Filter == nil {
		opts.Filter = NewFilter([]string{"Organized"}, nil)
	}
	return &Registry{
		opts:    opts,
		signals: signals,
		logger:  logging.NewComponentLogger(logger, "watch"),
		watches: make(map[string]*folderWatch),
		events:  make(chan Event, opts.EventBuffer),
		errs:    make(chan WatchError, errorBuffer),
	}
}

// Events delivers canonical events from every watched folder.
func (r *Registry) Events() <-chan Event {
	return r.events
}

// Errors delivers per-folder watch failures.
func (r *Registry) Errors() <-chan WatchError {
	return r.errs
}

// Filter returns the filter applied before emission.
func (r *Registry) Filter() *Filter {
	return r.opts.Filter
}

// AddFolder starts watching path. Existing top-level files are scanned and
// reported once stable. Adding a watched folder again is a no-op.
func (r *Registry) AddFolder(path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "watch", "add folder", path, err)
	}

	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return services.Wrap(services.ErrWatch, "watch", "add folder", path, ErrDestroyed)
	}
	if _, ok := r.watches[path]; ok {
		r.mu.Unlock()
		return nil
	}
	if info, err := os.Stat(path); err != nil {
		r.mu.Unlock()
		return services.Wrap(services.ErrWatch, "watch", "add folder", path, err)
	} else if !info.IsDir() {
		r.mu.Unlock()
		return services.Wrap(services.ErrWatch, "watch", "add folder", path+" is not a directory", nil)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.mu.Unlock()
		return services.Wrap(services.ErrWatch, "watch", "add folder", "create watcher", err)
	}
	if err := watcher.Add(path); err != nil {
		r.mu.Unlock()
		_ = watcher.Close()
		return services.Wrap(services.ErrWatch, "watch", "add folder", path, err)
	}

	fw := &folderWatch{
		path:      path,
		watcher:   watcher,
		filter:    r.opts.Filter,
		threshold: r.opts.StabilityThreshold,
		poll:      r.opts.PollInterval,
		events:    r.events,
		errs:      r.errs,
		logger:    r.logger.With(logging.String(logging.FieldFolder, path)),
		pending:   make(map[string]*candidate),
		reported:  make(map[string]struct{}),
		rescan:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	r.watches[path] = fw
	go fw.run()
	r.mu.Unlock()

	r.logger.Info("folder watch started",
		logging.String(logging.FieldEventType, "folder_added"),
		logging.String(logging.FieldFolder, path),
	)
	if r.signals.FolderAdded != nil {
		r.signals.FolderAdded(path)
	}
	return nil
}

// RemoveFolder stops watching path. Unknown folders are ignored.
func (r *Registry) RemoveFolder(path string) {
	path, err := cleanPath(path)
	if err != nil {
		return
	}
	r.mu.Lock()
	fw, ok := r.watches[path]
	if ok {
		delete(r.watches, path)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := fw.close(); err != nil {
		r.logger.Debug("close folder watcher", logging.String(logging.FieldFolder, path), logging.Error(err))
	}
	r.logger.Info("folder watch stopped",
		logging.String(logging.FieldEventType, "folder_removed"),
		logging.String(logging.FieldFolder, path),
	)
	if r.signals.FolderRemoved != nil {
		r.signals.FolderRemoved(path)
	}
}

// Rescan re-lists a watched folder and resubmits its files.
func (r *Registry) Rescan(path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "watch", "rescan", path, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return services.Wrap(services.ErrWatch, "watch", "rescan", path, ErrDestroyed)
	}
	fw, ok := r.watches[path]
	if !ok {
		return services.Wrap(services.ErrWatch, "watch", "rescan", fmt.Sprintf("%s is not watched", path), nil)
	}
	select {
	case fw.rescan <- struct{}{}:
	default:
	}
	return nil
}

// Folders returns the watched folders in sorted order.
func (r *Registry) Folders() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.watches))
	for path := range r.watches {
		out = append(out, path)
	}
	slices.Sort(out)
	return out
}

// Watching reports whether path is watched.
func (r *Registry) Watching(path string) bool {
	path, err := cleanPath(path)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.watches[path]
	return ok
}

// Destroy stops every watch and closes Events and Errors. It is safe to call
// more than once.
func (r *Registry) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	watches := r.watches
	r.watches = make(map[string]*folderWatch)
	r.mu.Unlock()

	for path, fw := range watches {
		if err := fw.close(); err != nil {
			r.logger.Debug("close folder watcher", logging.String(logging.FieldFolder, path), logging.Error(err))
		}
	}
	close(r.events)
	close(r.errs)
	r.logger.Debug("watch registry destroyed", logging.Int("folders", len(watches)))
}

func cleanPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, err
	}
	return filepath.Clean(abs), nil
}
