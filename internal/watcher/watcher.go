// Package watcher re-runs sync when skills directories change.
//
// Filesystem events are debounced and fed to a Scheduler, so a burst of
// edits produces one run and runs never overlap.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/skillsync/internal/logger"
)

// DefaultDebounce is the quiet period required before a sync is triggered.
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors skills directories and triggers sync after changes settle.
type Watcher struct {
	dirs     func(ctx context.Context) []string
	syncFn   func(ctx context.Context) error
	onSync   func(err error)
	debounce time.Duration

	scheduler *Scheduler
	fsWatcher *fsnotify.Watcher
	watched   map[string]bool

	mu        sync.Mutex
	dirty     bool
	lastEvent time.Time
}

// Config holds configuration options for the Watcher.
type Config struct {
	// Dirs lists the skills directories to watch. It is called at start and
	// after every run so new workspaces are picked up.
	Dirs func(ctx context.Context) []string

	// Sync performs one sync run.
	Sync func(ctx context.Context) error

	DebounceDelay time.Duration // Default: 300ms

	OnSync func(err error) // Optional callback after each run
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dirs == nil {
		return nil, fmt.Errorf("directory source is required")
	}
	if cfg.Sync == nil {
		return nil, fmt.Errorf("sync function is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		dirs:     cfg.Dirs,
		syncFn:   cfg.Sync,
		onSync:   cfg.OnSync,
		debounce: debounce,
		watched:  make(map[string]bool),
	}
	w.scheduler = NewScheduler(w.runOnce)
	return w, nil
}

// Start watches until ctx is cancelled. When initial is true a sync runs
// immediately.
func (w *Watcher) Start(ctx context.Context, initial bool) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer w.scheduler.Wait()

	w.refresh(ctx)
	if initial {
		w.scheduler.Trigger(ctx)
	}

	debounced := make(chan struct{})
	go func() {
		defer close(debounced)
		w.processDebounced(ctx)
	}()
	// The debounce loop must be gone before Wait so no new run can start.
	defer func() {
		cancel()
		<-debounced
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("watcher error")
		}
	}
}

// Notify records a change as if a filesystem event had arrived.
func (w *Watcher) Notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty = true
	w.lastEvent = time.Now()
}

// Scheduler exposes the run scheduler.
func (w *Watcher) Scheduler() *Scheduler {
	return w.scheduler
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if ignoreName(filepath.Base(event.Name)) {
		return
	}
	logger.G(ctx).WithField("op", event.Op.String()).WithField("path", event.Name).Debug("change detected")

	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.add(ctx, event.Name)
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// fsnotify drops the watch itself; forget it so a recreated dir is re-added.
		w.mu.Lock()
		delete(w.watched, event.Name)
		w.mu.Unlock()
	}
	w.Notify()
}

// processDebounced triggers a run once events have been quiet for the
// debounce delay.
func (w *Watcher) processDebounced(ctx context.Context) {
	tick := w.debounce / 6
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.ready(time.Now()) {
				w.scheduler.Trigger(ctx)
			}
		}
	}
}

func (w *Watcher) ready(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || now.Sub(w.lastEvent) < w.debounce {
		return false
	}
	w.dirty = false
	return true
}

func (w *Watcher) runOnce(ctx context.Context) {
	err := w.syncFn(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("sync failed")
	}
	if w.onSync != nil {
		w.onSync(err)
	}
	if w.fsWatcher != nil {
		w.refresh(ctx)
	}
}

// refresh watches every skills dir and the package dirs directly inside it.
func (w *Watcher) refresh(ctx context.Context) {
	for _, dir := range w.dirs(ctx) {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		w.add(ctx, dir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if ignoreName(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.add(ctx, path)
			}
		}
	}
}

func (w *Watcher) add(ctx context.Context, dir string) {
	w.mu.Lock()
	seen := w.watched[dir]
	w.watched[dir] = true
	w.mu.Unlock()
	if seen {
		return
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		logger.G(ctx).WithError(err).WithField("dir", dir).Debug("failed to watch")
		w.mu.Lock()
		delete(w.watched, dir)
		w.mu.Unlock()
	}
}

// ignoreName skips editor droppings and the protected system dir.
func ignoreName(name string) bool {
	switch {
	case name == ".DS_Store", name == "node_modules":
		return true
	case strings.HasSuffix(name, "~"), strings.HasSuffix(name, ".swp"), strings.HasSuffix(name, ".swx"):
		return true
	case name == ".system":
		return true
	}
	return false
}
