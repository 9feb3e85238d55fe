package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/utils"
)

// DefaultWatchDebounce is the quiet period after the last change before a
// rebuild is requested.
const DefaultWatchDebounce = 500 * time.Millisecond

// watchedDirs are watched recursively below the project root.
var watchedDirs = []string{"config", "templates", "assets"}

// Watcher requests a rebuild when project sources change
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	trigger  func() bool
	logger   logger.Logger

	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for root. Changes under ignoreDirs (the
// output directory) never trigger.
func NewWatcher(root string, ignoreDirs []string, debounce time.Duration, trigger func() bool, log logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	ignore := make([]string, 0, len(ignoreDirs))
	for _, d := range ignoreDirs {
		if abs, err := filepath.Abs(d); err == nil {
			ignore = append(ignore, abs)
		}
	}
	return &Watcher{
		root:     root,
		ignore:   ignore,
		debounce: debounce,
		trigger:  trigger,
		logger:   log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start registers the watches and begins forwarding changes.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw

	if err := fsw.Add(w.root); err != nil {
		utils.Close(fsw)
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	for _, dir := range watchedDirs {
		w.addTree(filepath.Join(w.root, dir))
	}

	w.logger.Info("watching project for changes",
		logger.String("root", w.root),
		logger.Strings("watches", fsw.WatchList()),
		logger.Duration("debounce", w.debounce))

	go w.loop(ctx)
	return nil
}

// Stop ends the watch loop and releases the watches.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.fsw != nil {
			<-w.doneCh
			if err := w.fsw.Close(); err != nil {
				w.logger.Warn("failed to close file watcher", logger.Error(err))
			}
		}
		w.logger.Debug("file watcher stopped")
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("source changed",
				logger.String("path", ev.Name),
				logger.String("op", ev.Op.String()))
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addTree(ev.Name)
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			if !w.trigger() {
				w.logger.Debug("rebuild already pending")
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", logger.Error(err))

		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}

	if abs, err := filepath.Abs(ev.Name); err == nil {
		for _, dir := range w.ignore {
			if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
				return false
			}
		}
	}
	return true
}

// addTree watches dir and its subdirectories. Missing directories are skipped.
func (w *Watcher) addTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory",
				logger.String("path", path),
				logger.Error(err))
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("failed to walk directory",
			logger.String("path", dir),
			logger.Error(err))
	}
}
