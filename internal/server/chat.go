package server

import (
	"errors"
	"net/http"

	"pointer/internal/client"
	"pointer/internal/logging"
	"pointer/internal/postprocess"
	"pointer/internal/prompt"

	"github.com/gin-gonic/gin"
)

// chatFailureText is the body of a 500 that has no user facing detail.
const chatFailureText = "Failed to process chat request. Please check your API key and try again."

type chatRequest struct {
	Messages  []client.Message `json:"messages"`
	Context   *prompt.Context  `json:"context"`
	Provider  string           `json:"provider"`
	Reasoning bool             `json:"reasoning"`
}

type chatResponse struct {
	Content         string                  `json:"content"`
	OriginalContent string                  `json:"originalContent"`
	CodeBlocks      []postprocess.CodeBlock `json:"codeBlocks"`
	Reasoning       *string                 `json:"reasoning"`
}

// handleChat is the stateless chat route: build the prompt, complete, post-process.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Warn("failed to parse chat request", "error", err)
		badRequest(c, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		badRequest(c, "no messages provided")
		return
	}
	for _, m := range req.Messages {
		if m.Role != client.RoleUser && m.Role != client.RoleAssistant {
			badRequest(c, "invalid message role: "+string(m.Role))
			return
		}
	}

	builder := prompt.NewBuilder(prompt.OptionsFromConfig(s.cfg.Prompt))
	payload := builder.Build(req.Messages, req.Context)

	resp, err := s.deps.Gateway.Complete(c.Request.Context(), client.Request{
		Provider:          req.Provider,
		Messages:          payload.Messages,
		SystemInstruction: payload.SystemInstruction,
		Reasoning:         req.Reasoning,
	})
	if err != nil {
		s.chatError(c, err)
		return
	}

	processed := postprocess.Process(resp.Text)
	out := chatResponse{
		Content:         processed.DisplayText,
		OriginalContent: processed.OriginalText,
		CodeBlocks:      processed.CodeBlocks,
	}
	if req.Reasoning && resp.ReasoningText != "" {
		out.Reasoning = &resp.ReasoningText
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) chatError(c *gin.Context, err error) {
	var (
		credential *client.CredentialError
		upstream   *client.UpstreamError
	)
	switch {
	case errors.As(err, &credential):
		c.JSON(http.StatusBadRequest, gin.H{"error": credential.Error()})
	case errors.Is(err, client.ErrUnknownProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &upstream):
		logging.Error("chat completion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": upstream.Error()})
	default:
		logging.Error("chat completion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": chatFailureText})
	}
}
