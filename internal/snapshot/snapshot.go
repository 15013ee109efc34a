// Package snapshot holds the in-memory project: file path to current text.
// It is the single source of truth for what the user is editing.
package snapshot

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrExists      = errors.New("file already exists")
	ErrInvalidPath = errors.New("invalid file path")
	ErrStale       = errors.New("file changed since the edit was computed")
)

// StaleError reports that a file moved past the version an edit was computed against.
type StaleError struct {
	Path     string
	Expected uint64
	Actual   uint64
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("%s: expected version %d, found %d", e.Path, e.Expected, e.Actual)
}

func (e *StaleError) Is(target error) bool { return target == ErrStale }

// File is one entry of the snapshot.
type File struct {
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lines returns the number of lines using split-on-newline semantics,
// so empty content has one line.
func (f File) Lines() int {
	return strings.Count(f.Content, "\n") + 1
}

// EventKind names a snapshot mutation.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	EventRenamed EventKind = "renamed"
)

// Event is delivered to subscribers after each mutation.
type Event struct {
	Kind    EventKind
	Path    string
	OldPath string // set for renames
	Version uint64
}

// Snapshot is a concurrency-safe path to content mapping.
// Every write stamps the file with a fresh version from a snapshot-wide clock,
// so a version is never reused even across delete and re-create.
type Snapshot struct {
	mu      sync.RWMutex
	files   map[string]*File
	clock   uint64
	subs    map[int]func(Event)
	nextSub int
}

// New creates an empty snapshot.
func New() *Snapshot {
	return &Snapshot{
		files: make(map[string]*File),
		subs:  make(map[int]func(Event)),
	}
}

// Normalize cleans a user supplied path into the snapshot key form.
func Normalize(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// Get returns a copy of the file at p.
func (s *Snapshot) Get(p string) (File, error) {
	key, err := Normalize(p)
	if err != nil {
		return File{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[key]
	if !ok {
		return File{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return *f, nil
}

// Content returns the text of p, or "" when p is unknown.
func (s *Snapshot) Content(p string) string {
	f, err := s.Get(p)
	if err != nil {
		return ""
	}
	return f.Content
}

// Exists reports whether p is a known file.
func (s *Snapshot) Exists(p string) bool {
	_, err := s.Get(p)
	return err == nil
}

// Len returns the number of files.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Paths returns all file paths in sorted order.
func (s *Snapshot) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Contents returns a copy of the path to content mapping.
func (s *Snapshot) Contents() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.files))
	for p, f := range s.files {
		out[p] = f.Content
	}
	return out
}

// LineCounts returns the line count of every file.
func (s *Snapshot) LineCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.files))
	for p, f := range s.files {
		out[p] = f.Lines()
	}
	return out
}

// Create adds a new file. It fails with ErrExists when p is already known.
func (s *Snapshot) Create(p, content string) (File, error) {
	key, err := Normalize(p)
	if err != nil {
		return File{}, err
	}

	s.mu.Lock()
	if _, ok := s.files[key]; ok {
		s.mu.Unlock()
		return File{}, fmt.Errorf("%w: %s", ErrExists, key)
	}
	f := s.writeLocked(key, content)
	s.mu.Unlock()

	s.publish(Event{Kind: EventCreated, Path: key, Version: f.Version})
	return f, nil
}

// CreateFromTemplate adds a new file seeded with the default content for its extension.
func (s *Snapshot) CreateFromTemplate(p string) (File, error) {
	key, err := Normalize(p)
	if err != nil {
		return File{}, err
	}
	return s.Create(key, DefaultContent(key))
}

// Set writes content to p, creating the file if needed. This is the direct
// user edit path; assistant edits go through Update.
func (s *Snapshot) Set(p, content string) (File, error) {
	key, err := Normalize(p)
	if err != nil {
		return File{}, err
	}

	s.mu.Lock()
	_, existed := s.files[key]
	f := s.writeLocked(key, content)
	s.mu.Unlock()

	kind := EventUpdated
	if !existed {
		kind = EventCreated
	}
	s.publish(Event{Kind: kind, Path: key, Version: f.Version})
	return f, nil
}

// Update replaces the content of an existing file, but only if its version still
// equals expectedVersion. It never creates a key.
func (s *Snapshot) Update(p string, expectedVersion uint64, content string) (File, error) {
	key, err := Normalize(p)
	if err != nil {
		return File{}, err
	}

	s.mu.Lock()
	cur, ok := s.files[key]
	if !ok {
		s.mu.Unlock()
		return File{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if cur.Version != expectedVersion {
		actual := cur.Version
		s.mu.Unlock()
		return File{}, &StaleError{Path: key, Expected: expectedVersion, Actual: actual}
	}
	f := s.writeLocked(key, content)
	s.mu.Unlock()

	s.publish(Event{Kind: EventUpdated, Path: key, Version: f.Version})
	return f, nil
}

// Delete removes p.
func (s *Snapshot) Delete(p string) error {
	key, err := Normalize(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	f, ok := s.files[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.files, key)
	s.mu.Unlock()

	s.publish(Event{Kind: EventDeleted, Path: key, Version: f.Version})
	return nil
}

// Rename moves a file to a new path, keeping its content.
func (s *Snapshot) Rename(oldPath, newPath string) (File, error) {
	from, err := Normalize(oldPath)
	if err != nil {
		return File{}, err
	}
	to, err := Normalize(newPath)
	if err != nil {
		return File{}, err
	}

	s.mu.Lock()
	cur, ok := s.files[from]
	if !ok {
		s.mu.Unlock()
		return File{}, fmt.Errorf("%w: %s", ErrNotFound, from)
	}
	if _, taken := s.files[to]; taken && to != from {
		s.mu.Unlock()
		return File{}, fmt.Errorf("%w: %s", ErrExists, to)
	}
	delete(s.files, from)
	f := s.writeLocked(to, cur.Content)
	s.mu.Unlock()

	s.publish(Event{Kind: EventRenamed, Path: to, OldPath: from, Version: f.Version})
	return f, nil
}

// Subscribe registers fn for change events and returns a function that removes it.
// Handlers run synchronously after the lock is released.
func (s *Snapshot) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Snapshot) writeLocked(key, content string) File {
	s.clock++
	f := &File{
		Path:      key,
		Content:   content,
		Version:   s.clock,
		UpdatedAt: time.Now(),
	}
	s.files[key] = f
	return *f
}

func (s *Snapshot) publish(ev Event) {
	s.mu.RLock()
	handlers := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
