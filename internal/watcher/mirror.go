package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"unicode/utf8"

	"pointer/internal/logging"
	"pointer/internal/snapshot"
)

// Mirror loads a directory into the snapshot and keeps it in sync with
// external edits. Changes made in the snapshot are not written back.
type Mirror struct {
	root     string
	snap     *snapshot.Snapshot
	watcher  *Watcher
	maxBytes int64
}

// NewMirror prepares a mirror of root into snap.
func NewMirror(root string, snap *snapshot.Snapshot, cfg Config) (*Mirror, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("watch root is not a directory: " + abs)
	}

	w, err := NewWatcher(abs, cfg)
	if err != nil {
		return nil, err
	}
	m := &Mirror{root: abs, snap: snap, watcher: w, maxBytes: cfg.MaxBytes}
	w.SetOnFileChange(m.sync)
	return m, nil
}

// Import copies every matching file into the snapshot and returns the count.
func (m *Mirror) Import() (int, error) {
	count := 0
	err := filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != m.root && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, ok := m.watcher.rel(path)
		if !ok || !m.watcher.Matches(rel) {
			return nil
		}
		if m.load(rel) {
			count++
		}
		return nil
	})
	logging.Info("imported project directory", "root", m.root, "files", count)
	return count, err
}

// Start begins watching; a disabled watcher makes this a no-op.
func (m *Mirror) Start() error { return m.watcher.Start() }

// Stop ends watching.
func (m *Mirror) Stop() error { return m.watcher.Stop() }

// Stats reports the underlying watcher state.
func (m *Mirror) Stats() Stats { return m.watcher.Stats() }

func (m *Mirror) sync(rel string, op Operation) {
	switch op {
	case OpDelete:
		if err := m.snap.Delete(rel); err != nil && !errors.Is(err, snapshot.ErrNotFound) {
			logging.Warn("failed to mirror delete", "path", rel, "error", err)
		}
	default:
		m.load(rel)
	}
}

// load reads rel from disk into the snapshot. Unchanged content is not rewritten.
func (m *Mirror) load(rel string) bool {
	path := filepath.Join(m.root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if m.maxBytes > 0 && info.Size() > m.maxBytes {
		logging.Debug("skipping large file", "path", rel, "size", info.Size())
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("failed to read file", "path", rel, "error", err)
		return false
	}
	if !utf8.Valid(data) {
		logging.Debug("skipping binary file", "path", rel)
		return false
	}

	content := string(data)
	if cur, err := m.snap.Get(rel); err == nil && cur.Content == content {
		return true
	}
	if _, err := m.snap.Set(rel, content); err != nil {
		logging.Warn("failed to mirror file", "path", rel, "error", err)
		return false
	}
	return true
}
