package watch

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"twinkle/internal/logging"
	"twinkle/internal/services"
)

// candidate is a file waiting for its size and mtime to settle.
type candidate struct {
	size       int64
	modTime    time.Time
	lastChange time.Time
	observed   bool
}

// folderWatch owns one folder. pending and reported are only touched by run.
type folderWatch struct {
	path      string
	watcher   *fsnotify.Watcher
	filter    *Filter
	threshold time.Duration
	poll      time.Duration
	events    chan<- Event
	errs      chan<- WatchError
	logger    *slog.Logger

	pending  map[string]*candidate
	reported map[string]struct{}

	rescan chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func (fw *folderWatch) run() {
	defer close(fw.done)

	ticker := time.NewTicker(fw.poll)
	defer ticker.Stop()

	fw.scan(false)

	for {
		select {
		case <-fw.stop:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.fail(err)
		case <-fw.rescan:
			fw.scan(true)
		case <-ticker.C:
			fw.settle(time.Now())
		}
	}
}

func (fw *folderWatch) handle(event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	if name == fw.path {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			fw.fail(errors.New("watched folder was removed or renamed"))
		}
		return
	}
	if filepath.Dir(name) != fw.path || fw.filter.Match(name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(fw.pending, name)
		if _, ok := fw.reported[name]; ok {
			delete(fw.reported, name)
			fw.emit(Event{Kind: Removed, Path: name, Folder: fw.path, Time: time.Now()})
		}
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		fw.track(name)
	}
}

// track submits name to the stability gate, restarting its quiet period.
func (fw *folderWatch) track(name string) {
	if c, ok := fw.pending[name]; ok {
		c.lastChange = time.Now()
		return
	}
	fw.pending[name] = &candidate{lastChange: time.Now()}
}

// settle emits every candidate whose size and mtime held still for the threshold.
func (fw *folderWatch) settle(now time.Time) {
	for name, c := range fw.pending {
		info, err := os.Lstat(name)
		if err != nil || !reportable(info) {
			delete(fw.pending, name)
			continue
		}
		if !c.observed || info.Size() != c.size || !info.ModTime().Equal(c.modTime) {
			c.size = info.Size()
			c.modTime = info.ModTime()
			c.observed = true
			c.lastChange = now
			continue
		}
		if now.Sub(c.lastChange) < fw.threshold {
			continue
		}
		delete(fw.pending, name)
		kind := Created
		if _, ok := fw.reported[name]; ok {
			kind = Modified
		}
		fw.reported[name] = struct{}{}
		if !fw.emit(Event{Kind: kind, Path: name, Folder: fw.path, Time: now}) {
			return
		}
	}
}

// scan submits the folder's current top-level files. A forced scan also
// forgets earlier reports so surviving files are announced as Created again.
func (fw *folderWatch) scan(force bool) {
	entries, err := os.ReadDir(fw.path)
	if err != nil {
		fw.fail(err)
		return
	}
	submitted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := filepath.Join(fw.path, entry.Name())
		if fw.filter.Match(name) {
			continue
		}
		if force {
			delete(fw.reported, name)
		}
		fw.track(name)
		submitted++
	}
	fw.logger.Debug("folder scanned",
		logging.String(logging.FieldEventType, "folder_scanned"),
		logging.Int("files", submitted),
		logging.Bool("rescan", force),
	)
}

func (fw *folderWatch) emit(event Event) bool {
	select {
	case fw.events <- event:
		return true
	case <-fw.stop:
		return false
	}
}

func (fw *folderWatch) fail(err error) {
	wrapped := services.Wrap(services.ErrWatch, "watch", "folder", fw.path, err)
	logging.WarnWithContext(fw.logger, "folder watch error", "watch_error",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the folder exists and is readable"),
		logging.String(logging.FieldImpact, "changes in this folder may be missed"),
	)
	select {
	case fw.errs <- WatchError{Folder: fw.path, Err: wrapped, Time: time.Now()}:
	default:
		fw.logger.Debug("watch error dropped; error channel full")
	}
}

func (fw *folderWatch) close() error {
	close(fw.stop)
	<-fw.done
	return fw.watcher.Close()
}

func reportable(info os.FileInfo) bool {
	mode := info.Mode()
	return mode.IsRegular() || mode&os.ModeSymlink != 0
}
