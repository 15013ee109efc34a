package chat

import (
	"time"
)

// SessionState is the persisted form of a Session.
type SessionState struct {
	ID         string    `json:"id"`
	StartTime  time.Time `json:"start_time"`
	LastActive time.Time `json:"last_active"`
	Messages   []Message `json:"messages"`
	Version    int64     `json:"version"`
}

// SessionInfo provides summary info about a saved session.
type SessionInfo struct {
	ID           string    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	LastActive   time.Time `json:"last_active"`
	Summary      string    `json:"summary"`
	MessageCount int       `json:"message_count"`
}

// GetState captures the session for persistence.
func (s *Session) GetState() *SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	for i := range msgs {
		msgs[i].IsTyping = false
	}
	return &SessionState{
		ID:         s.ID,
		StartTime:  s.StartTime,
		LastActive: time.Now(),
		Messages:   msgs,
		Version:    s.version,
	}
}

// RestoreFromState replaces the session contents with state.
func (s *Session) RestoreFromState(state *SessionState) {
	if state == nil {
		return
	}
	s.mu.Lock()
	oldCount := len(s.messages)
	if state.ID != "" {
		s.ID = state.ID
	}
	if !state.StartTime.IsZero() {
		s.StartTime = state.StartTime
	}
	s.messages = append([]Message(nil), state.Messages...)
	s.version = state.Version
	s.trimLocked()
	s.notifyChange(oldCount)
}

// Info summarizes the state for listings.
func (st *SessionState) Info() SessionInfo {
	return SessionInfo{
		ID:           st.ID,
		StartTime:    st.StartTime,
		LastActive:   st.LastActive,
		Summary:      st.GenerateSummary(),
		MessageCount: len(st.Messages),
	}
}

// GenerateSummary returns the first user message, shortened.
func (st *SessionState) GenerateSummary() string {
	for _, m := range st.Messages {
		if m.Role != "user" || m.Content == "" {
			continue
		}
		text := []rune(m.Content)
		if len(text) > 80 {
			return string(text[:77]) + "..."
		}
		return m.Content
	}
	return "Empty session"
}
