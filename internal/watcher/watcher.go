// Package watcher mirrors a project directory on disk into the snapshot.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pointer/internal/logging"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// skipDirs are never imported or watched.
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, ".idea": true, ".vscode": true,
	"__pycache__": true, "target": true, "build": true, "dist": true, ".next": true,
}

// Watcher reports settled changes to matching files under root. Each path has
// its own debounce timer, so a burst of writes to one file yields one callback.
type Watcher struct {
	root       string
	include    []string
	debounce   time.Duration
	maxWatches int

	fs      *fsnotify.Watcher
	handler atomic.Pointer[FileChangeHandler]
	events  atomic.Int64

	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
	done    chan struct{}
}

// NewWatcher prepares a watcher for root. A disabled config yields an inert
// watcher that still answers Matches.
func NewWatcher(root string, cfg Config) (*Watcher, error) {
	w := &Watcher{
		root:       root,
		include:    cfg.Include,
		debounce:   time.Duration(cfg.DebounceMs) * time.Millisecond,
		maxWatches: cfg.MaxWatches,
		timers:     make(map[string]*time.Timer),
	}
	if w.debounce <= 0 {
		w.debounce = 500 * time.Millisecond
	}
	if w.maxWatches <= 0 {
		w.maxWatches = 1000
	}
	if !cfg.Enabled {
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fs = fsw
	return w, nil
}

// SetOnFileChange sets the callback for settled changes.
func (w *Watcher) SetOnFileChange(handler FileChangeHandler) {
	w.handler.Store(&handler)
}

// Start watches every directory under root, up to the watch limit.
func (w *Watcher) Start() error {
	if w.fs == nil {
		return nil
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.done = make(chan struct{})
	w.mu.Unlock()

	if err := w.watchTree(w.root); err != nil {
		return err
	}
	go w.loop(w.done)

	logging.Info("watching project directory", "root", w.root, "dirs", w.WatchedPaths())
	return nil
}

// Stop ends watching and drops pending callbacks.
func (w *Watcher) Stop() error {
	if w.fs == nil {
		return nil
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.done)
	for rel, t := range w.timers {
		t.Stop()
		delete(w.timers, rel)
	}
	w.mu.Unlock()

	return w.fs.Close()
}

// Matches reports whether rel (slash separated, relative to the root) is a file
// the mirror cares about.
func (w *Watcher) Matches(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if skipDirs[part] {
			return false
		}
	}
	base := filepath.Base(rel)
	if base == "" || base[0] == '.' || base[0] == '#' || strings.HasSuffix(base, "~") {
		return false
	}
	if len(w.include) == 0 {
		return true
	}
	for _, pattern := range w.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// watchTree adds dir and its subdirectories, skipping vendored and build output.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if len(w.fs.WatchList()) >= w.maxWatches {
			logging.Warn("watch limit reached", "limit", w.maxWatches, "dir", path)
			return filepath.SkipAll
		}
		if err := w.fs.Add(path); err != nil {
			logging.Debug("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) loop(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.watchTree(ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logging.Debug("failed to watch new directory", "dir", ev.Name, "error", err)
			}
			return
		}
	}
	if ev.Op == fsnotify.Chmod {
		return
	}

	rel, ok := w.rel(ev.Name)
	if !ok || !w.Matches(rel) {
		return
	}
	w.events.Add(1)
	w.schedule(rel)
}

// schedule (re)arms the debounce timer for rel.
func (w *Watcher) schedule(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if t, ok := w.timers[rel]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[rel] = time.AfterFunc(w.debounce, func() { w.fire(rel) })
}

func (w *Watcher) fire(rel string) {
	w.mu.Lock()
	delete(w.timers, rel)
	running := w.running
	w.mu.Unlock()

	h := w.handler.Load()
	if !running || h == nil {
		return
	}
	(*h)(rel, w.settled(rel))
}

// settled reads the final state of rel: the file either exists now or it does not.
func (w *Watcher) settled(rel string) Operation {
	if _, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(rel))); errors.Is(err, fs.ErrNotExist) {
		return OpDelete
	}
	return OpModify
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// WatchedPaths returns the number of watched directories.
func (w *Watcher) WatchedPaths() int {
	if w.fs == nil {
		return 0
	}
	return len(w.fs.WatchList())
}

// Stats reports the watcher state.
func (w *Watcher) Stats() Stats {
	return Stats{
		Running:      w.IsRunning(),
		WatchedPaths: w.WatchedPaths(),
		EventsCount:  w.events.Load(),
	}
}
