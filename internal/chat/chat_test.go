package chat

import (
	"context"
	"errors"
	"testing"

	"pointer/internal/client"
	"pointer/internal/postprocess"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AddAndHistory(t *testing.T) {
	s := NewSession(0)

	u := s.AddUser("make the title blue")
	a := s.AddAssistant("✅ CHANGES APPLIED: done", []postprocess.CodeBlock{{Language: "css", Code: "h1{}"}}, "")
	s.AddError("Sorry, I encountered an error. Please try again.")

	assert.NotEqual(t, u.ID, a.ID)
	assert.True(t, a.IsTyping)
	assert.Equal(t, 3, s.MessageCount())

	history := s.History()
	require.Len(t, history, 2, "error bubbles are not sent to the model")
	assert.Equal(t, client.RoleUser, history[0].Role)
	assert.Equal(t, client.RoleAssistant, history[1].Role)
	assert.Equal(t, "✅ CHANGES APPLIED: done", history[1].Content)
}

func TestSession_MarkTyped(t *testing.T) {
	s := NewSession(0)
	a := s.AddAssistant("hi", nil, "")

	assert.True(t, s.MarkTyped(a.ID))
	assert.False(t, s.Messages()[0].IsTyping)
	assert.False(t, s.MarkTyped("missing"))
}

func TestSession_TrimsOldest(t *testing.T) {
	s := NewSession(3)
	for _, text := range []string{"1", "2", "3", "4", "5"} {
		s.AddUser(text)
	}

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "3", msgs[0].Content)
	assert.Equal(t, "5", msgs[2].Content)
}

func TestSession_ChangeHandler(t *testing.T) {
	s := NewSession(0)
	var events []ChangeEvent
	s.SetChangeHandler(func(ev ChangeEvent) {
		// handler may read the session without deadlocking
		_ = s.MessageCount()
		events = append(events, ev)
	})

	s.AddUser("a")
	s.Clear()

	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].OldCount)
	assert.Equal(t, 1, events[0].NewCount)
	assert.Equal(t, 0, events[1].NewCount)
	assert.Greater(t, events[1].Version, events[0].Version)
}

func TestSequencer_RejectWhileBusy(t *testing.T) {
	s := NewSession(0)

	t1, err := s.Begin(context.Background(), OverlapReject)
	require.NoError(t, err)
	assert.True(t, s.InFlight())

	_, err = s.Begin(context.Background(), OverlapReject)
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, s.Finish(t1))
	assert.False(t, s.InFlight())

	t2, err := s.Begin(context.Background(), OverlapReject)
	require.NoError(t, err)
	assert.Greater(t, t2.Seq, t1.Seq)
}

func TestSequencer_SupersedeCancelsAndDiscards(t *testing.T) {
	s := NewSession(0)

	t1, err := s.Begin(context.Background(), OverlapSupersede)
	require.NoError(t, err)
	t2, err := s.Begin(context.Background(), OverlapSupersede)
	require.NoError(t, err)

	assert.True(t, errors.Is(t1.Ctx.Err(), context.Canceled))
	assert.NoError(t, t2.Ctx.Err())

	// the late reply to the first request must be dropped
	assert.ErrorIs(t, s.Finish(t1), ErrOutOfOrder)
	assert.True(t, s.InFlight())
	assert.NoError(t, s.Finish(t2))
}

func TestSequencer_ClearInvalidatesOutstanding(t *testing.T) {
	s := NewSession(0)
	tk, err := s.Begin(context.Background(), OverlapReject)
	require.NoError(t, err)

	s.Clear()

	assert.Error(t, tk.Ctx.Err())
	assert.ErrorIs(t, s.Finish(tk), ErrOutOfOrder)
}

func TestStateRoundTrip(t *testing.T) {
	s := NewSession(0)
	s.AddUser("Please explain the code in app.js and how it works.")
	s.AddAssistant("It logs.", nil, "")

	state := s.GetState()
	assert.False(t, state.Messages[1].IsTyping, "typing flag is not persisted")
	assert.Equal(t, "Please explain the code in app.js and how it works.", state.Info().Summary)

	restored := NewSession(0)
	restored.RestoreFromState(state)
	assert.Equal(t, s.ID, restored.ID)
	assert.Equal(t, s.History(), restored.History())
}

func TestGenerateSummary_Empty(t *testing.T) {
	assert.Equal(t, "Empty session", (&SessionState{}).GenerateSummary())
}

func TestExportMarkdown_Redacts(t *testing.T) {
	s := NewSession(0)
	s.AddUser("my api_key=supersecretvalue123 is here")
	s.AddAssistant("ok", []postprocess.CodeBlock{{Language: "js", Code: "const t = 1"}}, "")

	md := s.ExportMarkdown()
	assert.Contains(t, md, "## User")
	assert.Contains(t, md, "## Assistant")
	assert.Contains(t, md, "[REDACTED]")
	assert.NotContains(t, md, "supersecretvalue123")
	assert.Contains(t, md, "```js\nconst t = 1\n```")
}

func TestSuggestion(t *testing.T) {
	tests := []struct {
		action     string
		file       string
		hasContent bool
		want       string
	}{
		{"explain", "app.js", true, "Please explain the code in app.js and how it works."},
		{"explain", "app.js", false, "Please explain how to get started with coding in this project."},
		{"debug", "a.py", true, "Help me find and fix any bugs or issues in a.py."},
		{"debug", "", true, "Help me understand common debugging techniques for web development."},
		{"generate", "app.js", true, "Generate a React component with TypeScript for a modern UI."},
		{"optimize", "x.ts", true, "Optimize the code in x.ts for better performance and readability."},
		{"optimize", "x.ts", false, "Give me tips for writing optimized and clean code."},
	}
	for _, tt := range tests {
		got, err := Suggestion(tt.action, tt.file, tt.hasContent)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.action)
	}

	_, err := Suggestion("deploy", "", false)
	assert.ErrorIs(t, err, ErrUnknownSuggestion)
	assert.Equal(t, []string{"debug", "explain", "generate", "optimize"}, SuggestionActions())
}
