package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pointer/internal/config"

	"github.com/sashabaranov/go-openai"
)

// GroqProvider calls Groq through its OpenAI-compatible chat completions API.
type GroqProvider struct {
	client *openai.Client
	model  string
	cfg    config.GroqConfig
}

// NewGroqProvider creates a Groq adapter for apiKey. httpClient may be nil.
func NewGroqProvider(apiKey string, cfg config.GroqConfig, httpClient *http.Client) *GroqProvider {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = cfg.BaseURL
	if clientConfig.BaseURL == "" {
		clientConfig.BaseURL = config.DefaultGroqBaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	model := cfg.Model
	if model == "" {
		model = config.DefaultGroqModel
	}
	return &GroqProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		cfg:    cfg,
	}
}

func (p *GroqProvider) Name() string { return "groq" }

func (p *GroqProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
	}
	if p.cfg.MaxTokens > 0 {
		chatReq.MaxTokens = p.cfg.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return &Response{Provider: p.Name(), Model: p.model}, nil
	}

	msg := resp.Choices[0].Message
	text, reasoning := msg.Content, msg.ReasoningContent
	if strings.Contains(text, "<think>") {
		var inline string
		text, inline = splitThinkTags(text)
		if reasoning == "" {
			reasoning = inline
		}
	}
	if !req.Reasoning {
		reasoning = ""
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}
	return &Response{
		Text:          text,
		ReasoningText: reasoning,
		Provider:      p.Name(),
		Model:         model,
	}, nil
}

func classifyOpenAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: provider, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &UpstreamError{Provider: provider, StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return &TransportError{Provider: provider, Err: err}
}
