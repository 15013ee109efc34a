package chat

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"pointer/internal/client"
	"pointer/internal/logging"
	"pointer/internal/postprocess"

	"github.com/google/uuid"
)

// DefaultMaxMessages bounds the transcript when no limit is configured.
const DefaultMaxMessages = 200

// ChangeEvent represents a session history change event.
type ChangeEvent struct {
	OldCount int
	NewCount int
	Version  int64
}

// ChangeHandler is called when session history changes.
type ChangeHandler func(ChangeEvent)

// Session is one conversation: its transcript and its request sequencer.
type Session struct {
	ID          string
	StartTime   time.Time
	messages    []Message
	maxMessages int
	version     int64
	onChange    ChangeHandler
	mu          sync.RWMutex

	seq sequencer
}

// NewSession creates an empty conversation keeping at most maxMessages.
func NewSession(maxMessages int) *Session {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Session{
		ID:          uuid.NewString(),
		StartTime:   time.Now(),
		maxMessages: maxMessages,
	}
}

// SetChangeHandler sets the callback for history changes.
func (s *Session) SetChangeHandler(handler ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = handler
}

// notifyChange must be called with s.mu held; it releases the lock.
func (s *Session) notifyChange(oldCount int) {
	handler := s.onChange
	event := ChangeEvent{
		OldCount: oldCount,
		NewCount: len(s.messages),
		Version:  s.version,
	}
	s.mu.Unlock()

	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Error("chat change handler panicked", "session", s.ID, "panic", r)
		}
	}()
	handler(event)
}

func (s *Session) append(m Message) Message {
	s.mu.Lock()
	oldCount := len(s.messages)
	s.messages = append(s.messages, m)
	s.version++
	s.trimLocked()
	s.notifyChange(oldCount)
	return m
}

// AddUser appends a user message.
func (s *Session) AddUser(content string) Message {
	return s.append(newMessage(client.RoleUser, content))
}

// AddAssistant appends a model reply. It starts in the typing state.
func (s *Session) AddAssistant(content string, blocks []postprocess.CodeBlock, reasoning string) Message {
	m := newMessage(client.RoleAssistant, content)
	m.CodeBlocks = blocks
	m.Reasoning = reasoning
	m.IsTyping = true
	return s.append(m)
}

// AddError appends a failure bubble.
func (s *Session) AddError(content string) Message {
	m := newMessage(client.RoleAssistant, content)
	m.Error = true
	return s.append(m)
}

// MarkTyped clears the typing flag of message id.
func (s *Session) MarkTyped(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].IsTyping = false
			return true
		}
	}
	return false
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// History returns the turns to send to the model, without error bubbles.
func (s *Session) History() []client.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]client.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Error {
			continue
		}
		turns = append(turns, client.Message{Role: m.Role, Content: m.Content})
	}
	return turns
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Version increases on every change.
func (s *Session) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Clear drops the transcript and cancels any request in flight.
func (s *Session) Clear() {
	s.seq.cancelAll()

	s.mu.Lock()
	oldCount := len(s.messages)
	s.messages = nil
	s.version++
	s.notifyChange(oldCount)
}

func (s *Session) trimLocked() {
	if over := len(s.messages) - s.maxMessages; over > 0 {
		s.messages = append([]Message(nil), s.messages[over:]...)
	}
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:password|passwd|token|secret|api_key|apikey|api-key|access_key|auth)\s*[=:]\s*["']?([^\s"']{8,})["']?`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9_\-.]+`),
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
	regexp.MustCompile(`gsk_[0-9A-Za-z]{20,}`),
}

// redactSensitiveData scans text and replaces sensitive patterns with [REDACTED].
func redactSensitiveData(text string) string {
	result := text
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// ExportMarkdown renders the conversation with a header per message.
func (s *Session) ExportMarkdown() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Session %s\n\n", s.ID))
	sb.WriteString(fmt.Sprintf("**Started:** %s\n\n", s.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString("---\n\n")

	for _, m := range s.messages {
		role := "Assistant"
		if m.Role == client.RoleUser {
			role = "User"
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", role))
		sb.WriteString(redactSensitiveData(m.Content))
		sb.WriteString("\n\n")
		for _, b := range m.CodeBlocks {
			sb.WriteString("```" + b.Language + "\n")
			sb.WriteString(redactSensitiveData(b.Code))
			sb.WriteString("\n```\n\n")
		}
	}
	return sb.String()
}
