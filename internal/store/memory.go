package store

import (
	"context"
	"sort"
	"sync"

	"pointer/internal/chat"
	"pointer/internal/snapshot"
)

// Memory keeps everything in process. It is the default backend.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*chat.SessionState
	project  *snapshot.Export
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*chat.SessionState)}
}

func (m *Memory) SaveSession(_ context.Context, state *chat.SessionState) error {
	if err := validateID(state.ID); err != nil {
		return err
	}
	cp := *state
	cp.Messages = append([]chat.Message(nil), state.Messages...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.ID] = &cp
	return nil
}

func (m *Memory) LoadSession(_ context.Context, id string) (*chat.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	cp.Messages = append([]chat.Message(nil), st.Messages...)
	return &cp, nil
}

func (m *Memory) ListSessions(_ context.Context) ([]chat.SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]chat.SessionInfo, 0, len(m.sessions))
	for _, st := range m.sessions {
		infos = append(infos, st.Info())
	}
	sortByActivity(infos)
	return infos, nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Memory) SaveSnapshot(_ context.Context, export snapshot.Export) error {
	files := make(map[string]string, len(export.Files))
	for p, c := range export.Files {
		files[p] = c
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.project = &snapshot.Export{Files: files, Structure: append([]string(nil), export.Structure...)}
	return nil
}

func (m *Memory) LoadSnapshot(_ context.Context) (snapshot.Export, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.project == nil {
		return snapshot.Export{}, ErrNotFound
	}
	return *m.project, nil
}

func (m *Memory) Close() error { return nil }

// sortByActivity orders newest first.
func sortByActivity(infos []chat.SessionInfo) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastActive.After(infos[j].LastActive)
	})
}
