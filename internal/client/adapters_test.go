package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pointer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroqServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGroqProvider_Complete(t *testing.T) {
	var seen map[string]any
	srv := newGroqServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"model": "llama-3.3-70b-versatile",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "<think>check braces</think>Fixed the loop."}}]
	}`, &seen)

	p := NewGroqProvider("test-key", config.GroqConfig{BaseURL: srv.URL + "/v1", Model: "llama-3.3-70b-versatile"}, srv.Client())
	resp, err := p.Complete(context.Background(), Request{
		Messages:          []Message{{Role: RoleUser, Content: "fix it"}, {Role: RoleAssistant, Content: "ok"}, {Role: RoleUser, Content: "again"}},
		SystemInstruction: "system text",
		Reasoning:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Fixed the loop.", resp.Text)
	assert.Equal(t, "check braces", resp.ReasoningText)
	assert.Equal(t, "groq", resp.Provider)

	messages, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 4)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "system text", first["content"])
	assert.Equal(t, "assistant", messages[2].(map[string]any)["role"])
}

func TestGroqProvider_ReasoningDroppedWhenNotRequested(t *testing.T) {
	srv := newGroqServer(t, http.StatusOK, `{"choices": [{"message": {"role": "assistant", "content": "<think>x</think>Done."}}]}`, nil)

	p := NewGroqProvider("test-key", config.GroqConfig{BaseURL: srv.URL + "/v1"}, srv.Client())
	resp, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "Done.", resp.Text)
	assert.Empty(t, resp.ReasoningText)
}

func TestGroqProvider_UpstreamErrorSurfaced(t *testing.T) {
	srv := newGroqServer(t, http.StatusTooManyRequests,
		`{"error": {"message": "Rate limit reached for model", "type": "tokens", "code": "rate_limit_exceeded"}}`, nil)

	p := NewGroqProvider("test-key", config.GroqConfig{BaseURL: srv.URL + "/v1"}, srv.Client())
	_, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 429, upstream.StatusCode)
	assert.Contains(t, upstream.Message, "Rate limit reached")
	assert.True(t, IsRetryable(err))
}

func TestGroqProvider_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewGroqProvider("test-key", config.GroqConfig{BaseURL: url + "/v1"}, nil)
	_, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
}

func TestOllamaProvider_Complete(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"qwen2.5-coder","message":{"role":"assistant","content":"Renamed the variable."},"done":true}` + "\n"))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(config.OllamaConfig{BaseURL: srv.URL, Model: "qwen2.5-coder"}, srv.Client())
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), Request{
		Messages:          []Message{{Role: RoleUser, Content: "rename x"}},
		SystemInstruction: "system text",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed the variable.", resp.Text)
	assert.Equal(t, "ollama", resp.Provider)

	assert.Equal(t, "qwen2.5-coder", seen["model"])
	assert.Equal(t, false, seen["stream"])
	messages := seen["messages"].([]any)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestOllamaProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found, try pulling it first"}` + "\n"))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(config.OllamaConfig{BaseURL: srv.URL, Model: "nope"}, srv.Client())
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.StatusCode)
	assert.Contains(t, upstream.Message, "not found")
	assert.False(t, IsRetryable(err))
}

func TestGeminiContents_MapsAssistantToModel(t *testing.T) {
	contents := geminiContents([]Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
		{Role: RoleUser, Content: ""},
	})
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "b", contents[1].Parts[0].Text)
}
