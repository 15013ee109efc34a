package chat

import (
	"time"

	"pointer/internal/client"
	"pointer/internal/postprocess"

	"github.com/google/uuid"
)

// Message is one chat bubble. It is not changed after creation except for
// the IsTyping presentation flag.
type Message struct {
	ID         string                  `json:"id"`
	Role       client.Role             `json:"role"`
	Content    string                  `json:"content"`
	CreatedAt  time.Time               `json:"createdAt"`
	CodeBlocks []postprocess.CodeBlock `json:"codeBlocks,omitempty"`
	Reasoning  string                  `json:"reasoning,omitempty"`
	IsTyping   bool                    `json:"isTyping,omitempty"`
	// Error marks a failure shown as a bubble. Such messages are not sent back to the model.
	Error bool `json:"error,omitempty"`
}

func newMessage(role client.Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
