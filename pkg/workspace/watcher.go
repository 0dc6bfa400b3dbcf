package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounceMs = 200

// Watcher keeps the output tree in sync with the workspace: changed files
// are re-transformed after a debounce window, deleted files have their
// output removed. Rapid successive writes to one file collapse into a
// single rebuild.
type Watcher struct {
	watcher *fsnotify.Watcher
	proc    *Processor
	root    string
	skip    []string
	logger  *slog.Logger

	debounce time.Duration
	timers   map[string]*time.Timer
	timersMu sync.Mutex

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// NewWatcher creates a watcher driving proc.
func NewWatcher(proc *Processor, opts Options, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	debounceMs := opts.DebounceMs
	if debounceMs == 0 {
		debounceMs = defaultDebounceMs
	}

	return &Watcher{
		watcher:  fsw,
		proc:     proc,
		logger:   logger,
		debounce: time.Duration(debounceMs) * time.Millisecond,
		timers:   make(map[string]*time.Timer),
		stopChan: make(chan struct{}),
	}, nil
}

// Start watches root and every non-skipped subdirectory, then processes
// events in a background goroutine.
func (w *Watcher) Start(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w.root = absRoot
	w.skip = w.proc.skipPatterns(absRoot)

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldSkip(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set up watches: %w", err)
	}

	w.logger.Info("watching workspace", "root", absRoot)
	go w.eventLoop()
	return nil
}

// Stop shuts the watcher down. Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.timersMu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.timersMu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.shouldSkip(path) {
		return
	}

	// New directories need a watch of their own.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.schedule(path)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if rel, ok := w.rel(path); ok {
			if err := w.proc.RemoveOutput(rel); err != nil {
				w.logger.Warn("failed to remove output", "path", rel, "error", err)
			}
		}
	}
}

// schedule arms (or re-arms) the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.rebuild(path)
		w.timersMu.Lock()
		delete(w.timers, path)
		w.timersMu.Unlock()
	})
}

func (w *Watcher) rebuild(path string) {
	rel, ok := w.rel(path)
	if !ok {
		return
	}
	changed, err := w.proc.ProcessFile(w.root, rel)
	if err != nil {
		w.logger.Warn("rebuild failed", "path", rel, "error", err)
		return
	}
	w.logger.Debug("rebuilt file", "path", rel, "changed", changed)
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) shouldSkip(path string) bool {
	rel, ok := w.rel(path)
	if !ok || rel == "." {
		return false
	}
	for _, pattern := range w.skip {
		if matched, _ := doublestar.PathMatch(pattern, rel); matched {
			return true
		}
	}
	return false
}
