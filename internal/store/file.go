package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pointer/internal/chat"
	"pointer/internal/fileutil"
	"pointer/internal/logging"
	"pointer/internal/snapshot"
)

const snapshotFile = "snapshot.json"

// File stores one JSON document per session plus snapshot.json under a directory.
type File struct {
	dir string
}

// NewFile creates the data directory layout.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("storage dir required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "sessions"), 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) sessionPath(id string) string {
	return filepath.Join(f.dir, "sessions", id+".json")
}

func (f *File) SaveSession(_ context.Context, state *chat.SessionState) error {
	if err := validateID(state.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return fileutil.AtomicWrite(f.sessionPath(state.ID), data, 0600)
}

func (f *File) LoadSession(_ context.Context, id string) (*chat.SessionState, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.sessionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var state chat.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &state, nil
}

func (f *File) ListSessions(ctx context.Context) ([]chat.SessionInfo, error) {
	entries, err := os.ReadDir(filepath.Join(f.dir, "sessions"))
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var infos []chat.SessionInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		state, err := f.LoadSession(ctx, id)
		if err != nil {
			logging.Debug("skipping unreadable session file", "file", entry.Name(), "error", err)
			continue
		}
		infos = append(infos, state.Info())
	}
	sortByActivity(infos)
	return infos, nil
}

func (f *File) DeleteSession(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(f.sessionPath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (f *File) SaveSnapshot(_ context.Context, export snapshot.Export) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return fileutil.AtomicWrite(filepath.Join(f.dir, snapshotFile), data, 0600)
}

func (f *File) LoadSnapshot(_ context.Context) (snapshot.Export, error) {
	fh, err := os.Open(filepath.Join(f.dir, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot.Export{}, ErrNotFound
		}
		return snapshot.Export{}, err
	}
	defer fh.Close()
	return snapshot.ReadExport(fh)
}

func (f *File) Close() error { return nil }
