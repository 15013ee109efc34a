// Package undo keeps undo and redo stacks of edits applied to the snapshot.
package undo

import (
	"errors"
	"fmt"
	"sync"

	"pointer/internal/snapshot"
)

// DefaultMaxChanges is the default maximum number of changes to track.
const DefaultMaxChanges = 100

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Target is the store edits are reverted in.
type Target interface {
	Update(path string, expectedVersion uint64, content string) (snapshot.File, error)
}

// Manager provides undo and redo functionality.
type Manager struct {
	target  Target
	changes []FileChange
	undone  []FileChange // stack of undone changes for redo
	maxSize int
	mu      sync.Mutex
}

// NewManager creates a Manager keeping at most maxSize changes per stack.
func NewManager(target Target, maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxChanges
	}
	return &Manager{target: target, maxSize: maxSize}
}

// Record records a new change and clears the redo stack.
func (m *Manager) Record(change FileChange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.changes = push(m.changes, change, m.maxSize)
	m.undone = nil
}

// Undo reverts the last change. It fails with snapshot.ErrStale, leaving both
// stacks untouched, when the file was edited after the change.
func (m *Manager) Undo() (*FileChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.changes) == 0 {
		return nil, ErrNothingToUndo
	}
	change := m.changes[len(m.changes)-1]

	f, err := m.target.Update(change.Path, change.Version, change.OldContent)
	if err != nil {
		return nil, fmt.Errorf("failed to undo: %w", err)
	}
	m.changes = m.changes[:len(m.changes)-1]
	rebase(m.changes, change.Path, f.Version)

	change.Version = f.Version
	m.undone = push(m.undone, change, m.maxSize)
	return &change, nil
}

// Redo re-applies the last undone change.
func (m *Manager) Redo() (*FileChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undone) == 0 {
		return nil, ErrNothingToRedo
	}
	change := m.undone[len(m.undone)-1]

	f, err := m.target.Update(change.Path, change.Version, change.NewContent)
	if err != nil {
		return nil, fmt.Errorf("failed to redo: %w", err)
	}
	m.undone = m.undone[:len(m.undone)-1]
	rebase(m.undone, change.Path, f.Version)

	change.Version = f.Version
	m.changes = push(m.changes, change, m.maxSize)
	return &change, nil
}

// CanUndo returns whether there are changes to undo.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.changes) > 0
}

// CanRedo returns whether there are changes to redo.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undone) > 0
}

// ListRecent returns the N most recent changes (newest first).
func (m *Manager) ListRecent(n int) []FileChange {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || len(m.changes) == 0 {
		return nil
	}
	n = min(n, len(m.changes))

	result := make([]FileChange, n)
	for i := 0; i < n; i++ {
		result[i] = m.changes[len(m.changes)-1-i]
	}
	return result
}

// Count returns the number of undoable changes.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.changes)
}

// Clear clears all tracked changes and redo history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = nil
	m.undone = nil
}

func push(stack []FileChange, change FileChange, maxSize int) []FileChange {
	if len(stack) >= maxSize {
		stack = stack[1:]
	}
	return append(stack, change)
}

// rebase moves the newest entry for path in stack to version, the version the
// file holds once the change above it has been stepped over.
func rebase(stack []FileChange, path string, version uint64) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Path == path {
			stack[i].Version = version
			return
		}
	}
}
