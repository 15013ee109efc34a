package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApplyCmd(t *testing.T, args []string, stdin string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("POINTER_CONFIG", "")

	cmd := newApplyCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestApplyCommand_LineRangeFromStdin(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("a\nb\nc"), 0600))

	response := "Replace lines 2 to 2 with the following code:\n```js\nB\n```"
	out, err := runApplyCmd(t, []string{"--plain", "--write", target}, response)
	require.NoError(t, err)
	assert.Contains(t, out, "[APPLIED]")

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a\nB\nc", string(got))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestApplyCommand_DryRunLeavesFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.js")
	resp := filepath.Join(dir, "reply.md")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(resp, []byte("```js\nnew\n```"), 0644))

	out, err := runApplyCmd(t, []string{"--plain", target, resp}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "replace_whole")

	got, _ := os.ReadFile(target)
	assert.Equal(t, "old", string(got))
}

func TestApplyCommand_InvalidRange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("one"), 0644))

	out, err := runApplyCmd(t, []string{"--plain", target}, "Replace lines 5 to 9 with the following code:\n```js\nx\n```")
	require.Error(t, err)
	assert.Contains(t, out, "[INVALID]")
}

func TestApplyCommand_NoEdit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("one"), 0644))

	out, err := runApplyCmd(t, []string{"--plain", target}, "No code here.")
	require.NoError(t, err)
	assert.Contains(t, out, "[NOOP]")
}
