package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pointer/internal/client"
	"pointer/internal/config"
	"pointer/internal/observability"
	"pointer/internal/snapshot"
	"pointer/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGateway struct {
	last  client.Request
	reply func(req client.Request) (*client.Response, error)
}

func (f *fakeGateway) Complete(_ context.Context, req client.Request) (*client.Response, error) {
	f.last = req
	return f.reply(req)
}

func (f *fakeGateway) Providers() []string     { return []string{"gemini", "groq"} }
func (f *fakeGateway) DefaultProvider() string { return "gemini" }

func replying(text, reasoning string) *fakeGateway {
	return &fakeGateway{reply: func(client.Request) (*client.Response, error) {
		return &client.Response{Text: text, ReasoningText: reasoning}, nil
	}}
}

func failing(err error) *fakeGateway {
	return &fakeGateway{reply: func(client.Request) (*client.Response, error) { return nil, err }}
}

func setupServer(t *testing.T, gw *fakeGateway, files map[string]string) (*Server, *workspace.Workspace) {
	t.Helper()
	snap := snapshot.New()
	for p, c := range files {
		_, err := snap.Create(p, c)
		require.NoError(t, err)
	}
	cfg := config.DefaultConfig()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	ws := workspace.New(snap, workspace.Options{Gateway: gw, Recorder: metrics, Config: cfg})
	return New(Deps{Config: cfg, Gateway: gw, Workspace: ws, Metrics: metrics, Gatherer: reg}), ws
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestChat_Success(t *testing.T) {
	gw := replying("Here's the updated code:\n```js\nlet x = 1\n```\nDone.", "")
	s, _ := setupServer(t, gw, nil)

	w := do(t, s, http.MethodPost, "/api/chat", gin.H{
		"messages": []gin.H{{"role": "user", "content": "make x"}},
		"context":  gin.H{"currentFile": "a.js", "fileContent": "", "allFiles": []string{"a.js"}},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Contains(t, body["originalContent"], "```js")
	assert.NotContains(t, body["content"], "```")
	assert.Nil(t, body["reasoning"])
	blocks := body["codeBlocks"].([]any)
	require.Len(t, blocks, 1)
	assert.Equal(t, "let x = 1", blocks[0].(map[string]any)["code"])

	assert.Contains(t, gw.last.SystemInstruction, "Current File: a.js")
	require.Len(t, gw.last.Messages, 1)
}

func TestChat_NoCodeBlocksIsNull(t *testing.T) {
	s, _ := setupServer(t, replying("Just an explanation.", "thinking"), nil)

	w := do(t, s, http.MethodPost, "/api/chat", gin.H{
		"messages":  []gin.H{{"role": "user", "content": "why?"}},
		"reasoning": true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	v, present := body["codeBlocks"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, "thinking", body["reasoning"])
}

func TestChat_MissingCredential(t *testing.T) {
	s, _ := setupServer(t, failing(&client.CredentialError{Provider: "groq", EnvVar: "GROQ_API_KEY"}), nil)

	w := do(t, s, http.MethodPost, "/api/chat", gin.H{
		"messages": []gin.H{{"role": "user", "content": "hi"}},
		"provider": "groq",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "GROQ_API_KEY")
}

func TestChat_UpstreamAndTransportFailures(t *testing.T) {
	s, _ := setupServer(t, failing(&client.UpstreamError{Provider: "gemini", StatusCode: 503, Message: "overloaded"}), nil)
	w := do(t, s, http.MethodPost, "/api/chat", gin.H{"messages": []gin.H{{"role": "user", "content": "hi"}}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "overloaded")

	s, _ = setupServer(t, failing(&client.TransportError{Provider: "gemini", Err: errors.New("dial tcp: refused")}), nil)
	w = do(t, s, http.MethodPost, "/api/chat", gin.H{"messages": []gin.H{{"role": "user", "content": "hi"}}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, chatFailureText, decode(t, w)["error"])
}

func TestChat_MalformedRequests(t *testing.T) {
	s, _ := setupServer(t, replying("ok", ""), nil)

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{nope"},
		{"no messages", gin.H{"messages": []gin.H{}}},
		{"bad role", gin.H{"messages": []gin.H{{"role": "system", "content": "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestFilesCRUD(t *testing.T) {
	s, ws := setupServer(t, replying("ok", ""), nil)

	w := do(t, s, http.MethodPost, "/api/files", gin.H{"path": "main.py"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, decode(t, w)["content"], "Hello from main.py")

	w = do(t, s, http.MethodPost, "/api/files", gin.H{"path": "main.py", "content": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPut, "/api/files/src/app.js", gin.H{"content": "let a"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/files/src/app.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "let a", decode(t, w)["content"])

	w = do(t, s, http.MethodPost, "/api/files/rename", gin.H{"from": "src/app.js", "to": "src/index.js"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ws.Snapshot().Exists("src/app.js"))

	w = do(t, s, http.MethodGet, "/api/files", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["files"], 2)

	w = do(t, s, http.MethodDelete, "/api/files/main.py", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/api/files/main.py", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/files/..%2Fescape", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectExportImport(t *testing.T) {
	s, ws := setupServer(t, replying("ok", ""), map[string]string{"a.js": "A"})

	w := do(t, s, http.MethodGet, "/api/project/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.String()

	_, err := ws.Snapshot().Set("b.js", "B")
	require.NoError(t, err)

	w = do(t, s, http.MethodPost, "/api/project/import", exported)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["files"])
	assert.Equal(t, []string{"a.js"}, ws.Snapshot().Paths())
}

func TestWorkspaceTurnAndUndo(t *testing.T) {
	gw := replying("Here's the updated code:\n```js\nconsole.log(2)\n```", "")
	s, ws := setupServer(t, gw, map[string]string{"app.js": "console.log(1)"})

	w := do(t, s, http.MethodPost, "/api/workspace/turn", gin.H{"text": "log 2", "currentFile": "app.js"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "applied", body["outcome"])
	assert.Equal(t, "console.log(2)", ws.Snapshot().Content("app.js"))

	w = do(t, s, http.MethodGet, "/api/workspace/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 2)

	w = do(t, s, http.MethodGet, "/api/workspace/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["changes"], 1)

	w = do(t, s, http.MethodPost, "/api/workspace/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", ws.Snapshot().Content("app.js"))

	w = do(t, s, http.MethodPost, "/api/workspace/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/workspace/redo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(2)", ws.Snapshot().Content("app.js"))
}

func TestWorkspaceTurn_Errors(t *testing.T) {
	s, _ := setupServer(t, failing(&client.UpstreamError{Provider: "groq", StatusCode: 500}), nil)

	w := do(t, s, http.MethodPost, "/api/workspace/turn", gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/workspace/turn", gin.H{"text": "hello"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	result := body["result"].(map[string]any)
	reply := result["reply"].(map[string]any)
	assert.Equal(t, true, reply["error"])
}

func TestWorkspaceApply_NeedsDecision(t *testing.T) {
	s, ws := setupServer(t, replying("ok", ""), map[string]string{"a.js": "old"})
	patch := "--- a/a.js\n+++ b/a.js\n@@ -1 +1 @@\n-old\n+new\n"

	w := do(t, s, http.MethodPost, "/api/workspace/apply", gin.H{"path": "a.js", "code": patch})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["needsDecision"])
	assert.Equal(t, float64(1), body["addedLines"])
	assert.Equal(t, "old", ws.Snapshot().Content("a.js"))

	w = do(t, s, http.MethodPost, "/api/workspace/apply", gin.H{"path": "a.js", "code": patch, "decision": "extract"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new", ws.Snapshot().Content("a.js"))
}

func TestSuggestionRoute(t *testing.T) {
	s, _ := setupServer(t, replying("ok", ""), nil)

	w := do(t, s, http.MethodGet, "/api/workspace/suggestions/explain?file=a.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["text"])

	w = do(t, s, http.MethodGet, "/api/workspace/suggestions/dance", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTerminalRoutes(t *testing.T) {
	s, _ := setupServer(t, replying("ok", ""), nil)

	w := do(t, s, http.MethodPost, "/api/terminal", gin.H{"command": "unknowncmd"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Command not found: unknowncmd")

	w = do(t, s, http.MethodPost, "/api/terminal", gin.H{"session": "missing", "command": "ls"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/terminal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessions := decode(t, w)["sessions"].([]any)
	require.Len(t, sessions, 1)
	only := sessions[0].(map[string]any)["id"].(string)

	w = do(t, s, http.MethodDelete, "/api/terminal/sessions/"+only, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := setupServer(t, replying("ok", ""), map[string]string{"a.js": ""})

	w := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "gemini", body["default_provider"])
	assert.Equal(t, float64(1), body["files"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "pointer_http_requests_total"), "http metrics exported")
}

func TestRequestIDIsPropagated(t *testing.T) {
	s, _ := setupServer(t, replying("ok", ""), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
