package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pointer/internal/config"
	"pointer/internal/logging"

	"github.com/ollama/ollama/api"
)

// OllamaProvider calls a local Ollama server. It needs no credential.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates an Ollama adapter. httpClient may be nil.
func NewOllamaProvider(cfg config.OllamaConfig, httpClient *http.Client) (*OllamaProvider, error) {
	rawURL := cfg.BaseURL
	if rawURL == "" {
		rawURL = config.DefaultOllamaBaseURL
	}
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}

	// Warn if using unencrypted HTTP to a non-localhost host
	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultOllamaModel
	}
	return &OllamaProvider{
		client: api.NewClient(baseURL, httpClient),
		model:  model,
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemInstruction})
	}
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: string(m.Role), Content: m.Content})
	}

	chatReq := &api.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   Ptr(false),
	}

	var text, thinking strings.Builder
	err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		thinking.WriteString(resp.Message.Thinking)
		return nil
	})
	if err != nil {
		return nil, classifyOllamaError(err)
	}

	out, reasoning := text.String(), thinking.String()
	if strings.Contains(out, "<think>") {
		var inline string
		out, inline = splitThinkTags(out)
		if reasoning == "" {
			reasoning = inline
		}
	}
	if !req.Reasoning {
		reasoning = ""
	}
	return &Response{Text: out, ReasoningText: reasoning, Provider: p.Name(), Model: p.model}, nil
}

func classifyOllamaError(err error) error {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return &UpstreamError{Provider: "ollama", StatusCode: statusErr.StatusCode, Message: msg}
	}
	var statusVal api.StatusError
	if errors.As(err, &statusVal) {
		return &UpstreamError{Provider: "ollama", StatusCode: statusVal.StatusCode, Message: statusVal.ErrorMessage}
	}
	if strings.Contains(err.Error(), "connection refused") {
		return &TransportError{Provider: "ollama", Err: fmt.Errorf("Ollama server is not running (start it with: ollama serve): %w", err)}
	}
	return &TransportError{Provider: "ollama", Err: err}
}
