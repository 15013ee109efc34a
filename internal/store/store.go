// Package store persists chat sessions and the project snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"pointer/internal/chat"
	"pointer/internal/config"
	"pointer/internal/snapshot"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid session id")
)

// Store is the persistence boundary shared by every backend.
type Store interface {
	SaveSession(ctx context.Context, state *chat.SessionState) error
	LoadSession(ctx context.Context, id string) (*chat.SessionState, error)
	ListSessions(ctx context.Context) ([]chat.SessionInfo, error)
	DeleteSession(ctx context.Context, id string) error
	SaveSnapshot(ctx context.Context, export snapshot.Export) error
	LoadSnapshot(ctx context.Context) (snapshot.Export, error)
	Close() error
}

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validateID(id string) error {
	if !sessionIDRe.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Open selects the backend named by cfg.Backend.
func Open(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Dir)
	case "sqlite":
		return NewSQLite(filepath.Join(cfg.Dir, "pointer.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
