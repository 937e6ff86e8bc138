package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"twinkle/internal/classifier"
	"twinkle/internal/config"
	"twinkle/internal/ledger"
	"twinkle/internal/logging"
	"twinkle/internal/notifications"
	"twinkle/internal/organizer"
	"twinkle/internal/services"
	"twinkle/internal/store"
	"twinkle/internal/watch"
)

const oracleCheckTimeout = 15 * time.Second

// Daemon runs the organize engine and enforces single-instance execution.
type Daemon struct {
	app     *App
	cfg     *config.Config
	logger  *slog.Logger
	logPath string
	logHub  *logging.StreamHub
	archive *logging.EventArchive

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.Mutex
	scheduler *cron.Cron
	startedAt time.Time

	// folderMu serializes folder set changes against the persisted record.
	folderMu sync.Mutex
}

// FolderStatus describes one persisted watch folder.
type FolderStatus struct {
	Path      string
	Watching  bool
	Subfolder string
}

// OracleStatus reports the configured classification oracle.
type OracleStatus struct {
	Provider string
	Model    string
	Checked  bool
	Ready    bool
	Detail   string
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	Folders        []FolderStatus
	Stats          store.Stats
	HistoryLen     int
	Oracle         OracleStatus
	StoreBackend   string
	StorePath      string
	LockFilePath   string
	LogPath        string
	RescanSchedule string
	NextRescan     time.Time
}

// New constructs a daemon around an already wired App. hub and archive may be
// nil when log streaming is not needed.
func New(app *App, logger *slog.Logger, logPath string, hub *logging.StreamHub, archive *logging.EventArchive) (*Daemon, error) {
	if app == nil || app.Config == nil || app.Store == nil || app.Registry == nil || app.Pipeline == nil {
		return nil, errors.New("daemon requires a fully wired app")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := app.Config.LockPath()
	return &Daemon{
		app:      app,
		cfg:      app.Config,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		logPath:  logPath,
		logHub:   hub,
		archive:  archive,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, restores watched folders, and begins
// organizing.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another twinkle daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go d.loop(d.ctx)

	if err := d.restoreFolders(d.ctx); err != nil {
		d.shutdown()
		return fmt.Errorf("restore folders: %w", err)
	}
	if err := d.startScheduler(); err != nil {
		d.shutdown()
		return fmt.Errorf("schedule rescans: %w", err)
	}

	d.mu.Lock()
	d.startedAt = time.Now()
	d.mu.Unlock()
	d.running.Store(true)
	d.logger.Info("twinkle daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("folders", len(d.app.Registry.Folders())),
		logging.String("classifier", d.app.oracle.provider),
	)
	return nil
}

// Stop stops organizing and releases the daemon lock. Folder watches keep
// their state until Close.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.shutdown()
	d.running.Store(false)
	d.logger.Info("twinkle daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

func (d *Daemon) shutdown() {
	d.mu.Lock()
	scheduler := d.scheduler
	d.scheduler = nil
	d.mu.Unlock()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next daemon start may report a running instance"),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.ctx = nil
}

// Close releases resources held by the daemon and its App.
func (d *Daemon) Close() error {
	d.Stop()
	return d.app.Close()
}

// Running reports whether the daemon is organizing.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// LogHub returns the in-memory log stream, or nil when not configured.
func (d *Daemon) LogHub() *logging.StreamHub {
	return d.logHub
}

// LogArchive returns the on-disk log journal, or nil when not configured.
func (d *Daemon) LogArchive() *logging.EventArchive {
	return d.archive
}

func (d *Daemon) loop(ctx context.Context) {
	defer d.wg.Done()
	events := d.app.Registry.Events()
	errs := d.app.Registry.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.handleEvent(ctx, ev)
		case werr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.publish(ctx, notifications.EventWatchError, notifications.Payload{
				"folder": werr.Folder,
				"error":  errorText(werr.Err),
			})
		}
	}
}

func (d *Daemon) handleEvent(ctx context.Context, ev watch.Event) {
	d.publish(ctx, notifications.EventFileEvent, notifications.Payload{
		"kind":   string(ev.Kind),
		"path":   ev.Path,
		"folder": ev.Folder,
	})
	// An organize that has started runs to completion even when the daemon stops.
	opCtx := services.WithRequestID(context.WithoutCancel(ctx), uuid.NewString())
	_, _ = d.app.Pipeline.Organize(opCtx, ev)
}

func (d *Daemon) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := d.app.Notifier.Publish(ctx, event, payload); err != nil {
		d.logger.Debug("notification publish failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

// restoreFolders starts watches for every persisted folder. An empty record
// is seeded from watch.default_folders. Folders that cannot be watched stay
// persisted so a later restart can pick them up.
func (d *Daemon) restoreFolders(ctx context.Context) error {
	d.folderMu.Lock()
	defer d.folderMu.Unlock()

	folders := d.app.Store.Folders()
	if len(folders) == 0 && len(d.cfg.Watch.DefaultFolders) > 0 {
		folders = append(folders, d.cfg.Watch.DefaultFolders...)
		if err := d.app.Store.Update(ctx, func(rec *store.Record) error {
			for _, folder := range folders {
				rec.AddFolder(folder)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	for _, folder := range folders {
		if err := d.app.Registry.AddFolder(folder); err != nil {
			logging.WarnWithContext(d.logger, "could not watch saved folder", "folder_restore_failed",
				logging.String(logging.FieldFolder, folder),
				logging.Error(err),
				logging.String(logging.FieldImpact, "new files in this folder are not organized"),
				logging.String(logging.FieldErrorHint, "recreate the folder or run twinkle folders remove"),
			)
		}
	}
	return nil
}

func (d *Daemon) startScheduler() error {
	schedule := strings.TrimSpace(d.cfg.Watch.RescanSchedule)
	if schedule == "" {
		return nil
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, d.rescanAll); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "parse rescan schedule", schedule, err)
	}
	scheduler.Start()
	d.mu.Lock()
	d.scheduler = scheduler
	d.mu.Unlock()
	d.logger.Debug("rescan scheduled", logging.String("schedule", schedule))
	return nil
}

func (d *Daemon) rescanAll() {
	for _, folder := range d.app.Registry.Folders() {
		if err := d.app.Registry.Rescan(folder); err != nil {
			d.logger.Debug("scheduled rescan skipped",
				logging.String(logging.FieldFolder, folder),
				logging.Error(err),
			)
		}
	}
}

// Folders lists the persisted watch folders with their live watch state.
func (d *Daemon) Folders() []FolderStatus {
	folders := d.app.Store.Folders()
	out := make([]FolderStatus, 0, len(folders))
	for _, folder := range folders {
		out = append(out, FolderStatus{
			Path:      folder,
			Watching:  d.app.Registry.Watching(folder),
			Subfolder: d.app.Pipeline.RootSubfolder(folder),
		})
	}
	return out
}

// AddFolder starts watching path and persists it. It returns the normalized
// path and whether the folder was new.
func (d *Daemon) AddFolder(ctx context.Context, path string) (string, bool, error) {
	folder, err := normalizeFolder(path)
	if err != nil {
		return "", false, err
	}
	d.folderMu.Lock()
	defer d.folderMu.Unlock()

	if err := d.app.Registry.AddFolder(folder); err != nil {
		return folder, false, err
	}
	var added bool
	if err := d.app.Store.Update(ctx, func(rec *store.Record) error {
		added = rec.AddFolder(folder)
		return nil
	}); err != nil {
		return folder, false, err
	}
	if added {
		d.logger.Info("folder added",
			logging.String(logging.FieldEventType, "folder_saved"),
			logging.String(logging.FieldFolder, folder),
		)
	}
	return folder, added, nil
}

// RemoveFolder stops watching path and drops it from the persisted set.
func (d *Daemon) RemoveFolder(ctx context.Context, path string) (string, bool, error) {
	folder, err := normalizeFolder(path)
	if err != nil {
		return "", false, err
	}
	d.folderMu.Lock()
	defer d.folderMu.Unlock()

	d.app.Registry.RemoveFolder(folder)
	var removed bool
	if err := d.app.Store.Update(ctx, func(rec *store.Record) error {
		removed = rec.RemoveFolder(folder)
		return nil
	}); err != nil {
		return folder, false, err
	}
	return folder, removed, nil
}

// Rescan re-reports every file in path, or in every watched folder when path
// is empty. It returns the folders that were rescanned.
func (d *Daemon) Rescan(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		folders := d.app.Registry.Folders()
		d.rescanAll()
		return folders, nil
	}
	folder, err := normalizeFolder(path)
	if err != nil {
		return nil, err
	}
	if err := d.app.Registry.Rescan(folder); err != nil {
		return nil, err
	}
	return []string{folder}, nil
}

// History returns up to limit recorded actions, newest first.
func (d *Daemon) History(limit int) []ledger.Action {
	actions := d.app.Ledger.List()
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}
	return actions
}

// Undo reverses the most recent action.
func (d *Daemon) Undo(ctx context.Context) (organizer.UndoResult, error) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	return d.app.Pipeline.UndoLastAction(ctx)
}

// Stats returns the lifetime counters.
func (d *Daemon) Stats() store.Stats {
	return d.app.Store.Stats()
}

// Activity returns up to limit recent events, newest first.
func (d *Daemon) Activity(limit int) []notifications.Activity {
	return d.app.Feed.Recent(limit)
}

// Classify reports how path would be classified and where it would land,
// without moving it.
func (d *Daemon) Classify(ctx context.Context, path string) (classifier.Classification, string, error) {
	expanded, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return classifier.Classification{}, "", services.Wrap(services.ErrValidation, "daemon", "classify", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return classifier.Classification{}, "", services.Wrap(services.ErrValidation, "daemon", "classify", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return classifier.Classification{}, "", services.Wrap(services.ErrValidation, "daemon", "classify", abs, err)
	}
	if info.IsDir() {
		return classifier.Classification{}, "", services.Wrap(services.ErrValidation, "daemon", "classify", abs, errors.New("path is a directory"))
	}
	verdict, dest := d.app.Pipeline.Preview(ctx, abs)
	return verdict, dest, nil
}

// Status returns the current daemon status. checkOracle issues a live
// request to the configured oracle.
func (d *Daemon) Status(ctx context.Context, checkOracle bool) Status {
	snapshot := d.app.Store.Snapshot()
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		Folders:        d.Folders(),
		Stats:          snapshot.Stats,
		HistoryLen:     len(snapshot.History),
		Oracle:         d.oracleStatus(ctx, checkOracle),
		StoreBackend:   d.cfg.Storage.Backend,
		StorePath:      d.cfg.Storage.Path,
		LockFilePath:   d.lockPath,
		LogPath:        d.logPath,
		RescanSchedule: d.cfg.Watch.RescanSchedule,
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if status.Running {
		status.StartedAt = d.startedAt
	}
	if d.scheduler != nil {
		if entries := d.scheduler.Entries(); len(entries) > 0 {
			status.NextRescan = entries[0].Next
		}
	}
	return status
}

func (d *Daemon) oracleStatus(ctx context.Context, check bool) OracleStatus {
	backend := d.app.oracle
	status := OracleStatus{Provider: backend.provider, Model: backend.model}
	if backend.oracle == nil {
		status.Detail = "extension table only"
		return status
	}
	if !check || backend.health == nil {
		return status
	}
	checkCtx, cancel := context.WithTimeout(ctx, oracleCheckTimeout)
	defer cancel()
	status.Checked = true
	if err := backend.health(checkCtx); err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Ready = true
	status.Detail = "reachable"
	return status
}

func normalizeFolder(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "daemon", "normalize folder", "", errors.New("folder path is required"))
	}
	expanded, err := config.ExpandPath(trimmed)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "daemon", "normalize folder", trimmed, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "daemon", "normalize folder", trimmed, err)
	}
	return filepath.Clean(abs), nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
