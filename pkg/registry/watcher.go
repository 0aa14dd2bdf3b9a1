package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"bastion-hq/bastion/pkg/schema/parser"
)

// DefaultDebounceInterval is used when WatcherConfig leaves it unset.
const DefaultDebounceInterval = 200 * time.Millisecond

// WatcherConfig contains configuration for the file watcher.
type WatcherConfig struct {
	// Path is the directory to watch, including subdirectories.
	Path string

	// DebounceInterval is the quiet period after the last change before the
	// callback runs.
	DebounceInterval time.Duration

	// SkipHidden ignores files and directories whose name starts with a dot.
	SkipHidden bool
}

// FileWatcher watches a directory tree for schema document changes and
// coalesces bursts of events into one callback.
type FileWatcher struct {
	cfg      WatcherConfig
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce *Debouncer

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFileWatcher creates a watcher. Nothing is watched until Watch runs.
func NewFileWatcher(cfg WatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch path cannot be empty")
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		cfg:      cfg,
		watcher:  w,
		logger:   logger,
		debounce: NewDebouncer(cfg.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is cancelled or Stop is called, invoking onChange
// once per burst of relevant events. Errors from onChange are logged and
// watching continues. The watcher cannot be restarted once Watch returns.
func (fw *FileWatcher) Watch(ctx context.Context, onChange func() error) error {
	fw.mu.Lock()
	if fw.running || fw.stopped {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already used")
	}
	fw.running = true
	fw.mu.Unlock()

	defer close(fw.doneCh)
	defer fw.watcher.Close()
	defer fw.debounce.Stop()

	if err := fw.addTree(fw.cfg.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	fw.logger.Info("File watcher started",
		"path", fw.cfg.Path,
		"debounce_ms", fw.cfg.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("File watcher stopped (context cancelled)")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("File watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !fw.relevant(event) {
				continue
			}

			fw.logger.Debug("File event detected", "path", event.Name, "op", event.Op.String())
			fw.debounce.Trigger(func() {
				fw.logger.Info("Triggering schema reload", "path", event.Name, "op", event.Op.String())
				if err := onChange(); err != nil {
					fw.logger.Error("Schema reload failed", "error", err)
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("File watcher error", "error", err)
		}
	}
}

// Stop ends a running Watch and waits for it to return. It is safe to call
// more than once and before Watch.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return
	}
	fw.stopped = true
	running := fw.running
	close(fw.stopCh)
	fw.mu.Unlock()

	if running {
		<-fw.doneCh
		return
	}
	_ = fw.watcher.Close()
}

// relevant reports whether an event can change the loaded schema set. New
// directories are added to the watch list as a side effect.
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if fw.cfg.SkipHidden && strings.HasPrefix(base, ".") {
		return false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.addTree(event.Name); err != nil {
				fw.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return true
		}
	}

	return parser.IsSchemaFile(event.Name)
}

// addTree adds dir and every subdirectory to the watcher.
func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if fw.cfg.SkipHidden && path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		fw.logger.Debug("Watching directory", "path", path)
		return nil
	})
}

// Debouncer runs the most recent callback once no trigger has arrived for
// the interval.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any callback still pending.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	cb := d.callback
	d.callback = nil
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
