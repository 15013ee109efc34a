package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pointer/internal/config"

	"google.golang.org/genai"
)

// GeminiProvider calls the Gemini generateContent API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	cfg    config.GeminiConfig
}

// NewGeminiProvider creates a Gemini adapter for apiKey.
func NewGeminiProvider(ctx context.Context, apiKey string, cfg config.GeminiConfig) (*GeminiProvider, error) {
	clientConfig := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = config.DefaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model, cfg: cfg}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete sends the conversation with the system instruction passed as the API parameter.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature: Ptr(p.cfg.Temperature),
	}
	if p.cfg.MaxTokens > 0 {
		genConfig.MaxOutputTokens = p.cfg.MaxTokens
	}
	if req.SystemInstruction != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.Reasoning {
		genConfig.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
		}
		if p.cfg.ThinkingBudget > 0 {
			genConfig.ThinkingConfig.ThinkingBudget = Ptr(p.cfg.ThinkingBudget)
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, geminiContents(req.Messages), genConfig)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text, thoughts := geminiText(resp)
	return &Response{
		Text:          text,
		ReasoningText: thoughts,
		Provider:      p.Name(),
		Model:         p.model,
	}, nil
}

// geminiContents maps assistant turns to the model role.
func geminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText(" ", genai.RoleUser))
	}
	return contents
}

func geminiText(resp *genai.GenerateContentResponse) (text, thoughts string) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", ""
	}

	var out, thinking strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		if part.Thought {
			thinking.WriteString(part.Text)
			continue
		}
		out.WriteString(part.Text)
	}
	return out.String(), thinking.String()
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: "gemini", StatusCode: apiErr.Code, Message: geminiMessage(apiErr)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &UpstreamError{Provider: "gemini", StatusCode: apiErrPtr.Code, Message: geminiMessage(*apiErrPtr)}
	}
	return &TransportError{Provider: "gemini", Err: err}
}

func geminiMessage(e genai.APIError) string {
	if e.Status != "" && e.Message != "" {
		return e.Status + ": " + e.Message
	}
	return e.Message
}
