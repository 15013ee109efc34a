// Package terminal is the simulated project terminal. Commands are answered
// from a canned table; nothing is executed on the host.
package terminal

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCwd is the working directory of new sessions.
const DefaultCwd = "/workspace/pointer-ide"

var (
	ErrSessionNotFound = errors.New("terminal session not found")
	ErrLastSession     = errors.New("cannot close the last terminal session")
)

// LineType classifies a terminal line.
type LineType string

const (
	LineCommand LineType = "command"
	LineOutput  LineType = "output"
	LineError   LineType = "error"
)

// Line is one entry of a session history.
type Line struct {
	ID        string    `json:"id"`
	Type      LineType  `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func newLine(t LineType, content string) Line {
	return Line{ID: uuid.NewString(), Type: t, Content: content, Timestamp: time.Now()}
}

var canned = map[string]string{
	"help":             "Available commands: ls, cd, pwd, npm, git, clear, help, python, node, cat, mkdir, touch",
	"ls":               "app/\ncomponents/\nlib/\npackage.json\ntsconfig.json\nREADME.md",
	"pwd":              DefaultCwd,
	"npm --version":    "10.2.4",
	"node --version":   "v20.10.0",
	"python --version": "Python 3.11.0",
	"git status":       "On branch main\nYour branch is up to date with 'origin/main'.\n\nnothing to commit, working tree clean",
	"npm run dev":      "Starting development server...\n> pointer-ide@0.1.0 dev\n> next dev\n\n✓ Ready on http://localhost:3000",
	"npm install":      "Installing dependencies...\n\nadded 1247 packages in 23s",
	"cat package.json": packageJSON,

	`python -c "print('Hello from Python!')"`:   "Hello from Python!",
	`node -e "console.log('Hello from Node!')"`: "Hello from Node!",
}

const packageJSON = `{
  "name": "pointer-ide",
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "dev": "next dev",
    "build": "next build",
    "start": "next start"
  }
}`

// Session is one terminal tab.
type Session struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cwd     string `json:"cwd"`
	History []Line `json:"history"`
}

// respond computes the output for command and updates the session state.
func (s *Session) respond(command string) *Line {
	if out, ok := canned[command]; ok {
		l := newLine(LineOutput, out)
		return &l
	}

	var (
		t   = LineOutput
		out string
	)
	switch {
	case strings.HasPrefix(command, "cd "):
		dir := strings.TrimSpace(command[3:])
		s.Cwd = dir
		out = "Changed directory to " + dir
	case strings.HasPrefix(command, "mkdir "):
		out = fmt.Sprintf("Directory '%s' created", strings.TrimSpace(command[6:]))
	case strings.HasPrefix(command, "touch "):
		out = fmt.Sprintf("File '%s' created", strings.TrimSpace(command[6:]))
	case strings.HasPrefix(command, "echo "):
		out = strings.NewReplacer("'", "", `"`, "").Replace(strings.TrimSpace(command[5:]))
	case strings.Contains(command, "python") && strings.Contains(command, "-c"):
		out = "Python execution completed"
	case strings.Contains(command, "node") && strings.Contains(command, "-e"):
		out = "Node.js execution completed"
	default:
		t = LineError
		out = fmt.Sprintf("Command not found: %s\nType 'help' for available commands", command)
	}
	l := newLine(t, out)
	return &l
}

// Manager holds the open terminal sessions.
type Manager struct {
	mu       sync.Mutex
	sessions []*Session
	opened   int
}

// NewManager creates a manager with one welcome session.
func NewManager() *Manager {
	m := &Manager{}
	s := m.open()
	s.History = []Line{
		newLine(LineOutput, "Welcome to Pointer IDE Terminal"),
		newLine(LineOutput, "Type 'help' for available commands"),
	}
	return m
}

func (m *Manager) open() *Session {
	m.opened++
	s := &Session{
		ID:   uuid.NewString(),
		Name: fmt.Sprintf("Terminal %d", m.opened),
		Cwd:  DefaultCwd,
	}
	m.sessions = append(m.sessions, s)
	return s
}

// Open starts a new session.
func (m *Manager) Open() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.open()
	s.History = []Line{newLine(LineOutput, "New terminal session started")}
	return copySession(s)
}

// Close removes a session. The last session cannot be closed.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.sessions {
		if s.ID != id {
			continue
		}
		if len(m.sessions) == 1 {
			return ErrLastSession
		}
		m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
		return nil
	}
	return ErrSessionNotFound
}

// List returns all sessions.
func (m *Manager) List() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, len(m.sessions))
	for i, s := range m.sessions {
		out[i] = copySession(s)
	}
	return out
}

// Execute runs command in session id (the first session when id is empty) and
// returns the lines it appended.
func (m *Manager) Execute(id, command string) ([]Line, error) {
	command = strings.TrimSpace(command)

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.find(id)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if command == "" {
		return nil, nil
	}
	if command == "clear" {
		s.History = nil
		return nil, nil
	}

	lines := []Line{newLine(LineCommand, fmt.Sprintf("%s $ %s", s.Cwd, command))}
	if out := s.respond(command); out != nil {
		lines = append(lines, *out)
	}
	s.History = append(s.History, lines...)
	return lines, nil
}

func (m *Manager) find(id string) *Session {
	if id == "" && len(m.sessions) > 0 {
		return m.sessions[0]
	}
	for _, s := range m.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func copySession(s *Session) Session {
	cp := *s
	cp.History = append([]Line(nil), s.History...)
	return cp
}
