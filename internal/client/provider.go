package client

import (
	"context"
	"strings"
	"time"
)

// Role of a chat turn as sent by the browser.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is the canonical completion request.
type Request struct {
	Provider          string
	Messages          []Message
	SystemInstruction string
	Reasoning         bool
}

// Response is the canonical completion result, whatever the provider's wire shape.
type Response struct {
	Text          string
	ReasoningText string
	Provider      string
	Model         string
	Attempts      int
	Duration      time.Duration
}

// Provider is one remote model backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// EmptyResponseText replaces a completion that carried no text.
const EmptyResponseText = "Sorry, I couldn't generate a response."

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// splitThinkTags separates inline <think>...</think> reasoning, which some
// open models emit in the content channel, from the answer.
func splitThinkTags(s string) (text, reasoning string) {
	const open, closing = "<think>", "</think>"

	var thoughts []string
	for {
		i := strings.Index(s, open)
		if i < 0 {
			break
		}
		j := strings.Index(s[i:], closing)
		if j < 0 {
			thoughts = append(thoughts, strings.TrimSpace(s[i+len(open):]))
			s = s[:i]
			break
		}
		thoughts = append(thoughts, strings.TrimSpace(s[i+len(open):i+j]))
		s = s[:i] + s[i+j+len(closing):]
	}
	return strings.TrimSpace(s), strings.Join(thoughts, "\n\n")
}
