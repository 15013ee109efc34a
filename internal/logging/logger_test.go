package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelWarn, FormatJSON, &buf)
	t.Cleanup(Discard)

	Info("dropped")
	Warn("kept", "path", "a.js")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "a.js", entry["path"])
}

func TestConfigure_Text(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelDebug, FormatText, &buf)
	t.Cleanup(Discard)

	Debug("hello", "n", 1)
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "n=1")
}

func TestEnableFileLogging(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnableFileLogging(dir, LevelInfo, FormatJSON))
	Info("to file")
	Close()
	Discard()

	data, err := os.ReadFile(filepath.Join(dir, "pointer.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
