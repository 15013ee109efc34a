package undo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FileChange is one edit applied to the project snapshot.
type FileChange struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Source     string    `json:"source"` // "assistant" or "manual"
	Strategy   string    `json:"strategy"`
	Timestamp  time.Time `json:"timestamp"`
	OldContent string    `json:"old_content"`
	NewContent string    `json:"new_content"`
	// Version is the snapshot version the file holds while this change is the
	// latest state, so undo can detect edits made after it.
	Version uint64 `json:"version"`
}

// NewFileChange creates a FileChange with a generated ID.
func NewFileChange(path, source, strategy, oldContent, newContent string, version uint64) FileChange {
	return FileChange{
		ID:         uuid.NewString(),
		Path:       path,
		Source:     source,
		Strategy:   strategy,
		Timestamp:  time.Now(),
		OldContent: oldContent,
		NewContent: newContent,
		Version:    version,
	}
}

// Summary returns a human-readable summary of the change.
func (c FileChange) Summary() string {
	return fmt.Sprintf("%s edit to %s (%s)", c.Source, c.Path, c.Strategy)
}

// SizeChange returns the size difference in bytes.
func (c FileChange) SizeChange() int {
	return len(c.NewContent) - len(c.OldContent)
}
