package postprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDiff(t *testing.T) {
	assert.True(t, DetectDiff("--- a/foo\n+++ b/foo\n@@ -1,1 +1,1 @@"))
	assert.True(t, DetectDiff("see @@ here"), "any single marker is enough")
	assert.False(t, DetectDiff("Added a print statement.\n```py\nprint(1)\n```"))
	assert.False(t, DetectDiff("a - b + c"))
}

func TestIsUnifiedDiff_RequiresAllMarkers(t *testing.T) {
	assert.True(t, IsUnifiedDiff("--- a/foo\n+++ b/foo\n@@ -1,1 +1,1 @@\n-x\n+y"))
	assert.False(t, IsUnifiedDiff("--- a/foo\n+++ b/foo\n"))
}

func TestProcess_DiffBanner(t *testing.T) {
	res := Process("--- a/foo\n+++ b/foo\n@@ -1,1 +1,1 @@\n-old\n+new")

	assert.True(t, res.DiffDetected)
	assert.True(t, strings.HasPrefix(res.DisplayText, strings.TrimSpace(DiffBanner)))

	clean := Process("Renamed the function.")
	assert.False(t, clean.DiffDetected)
	assert.Equal(t, "Renamed the function.", clean.DisplayText)
}

func TestAddDiffBanner_Once(t *testing.T) {
	once := AddDiffBanner("x")
	assert.Equal(t, once, AddDiffBanner(once))
}

func TestStripBoilerplate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Here's the updated code:\nDone.", "\nDone."},
		{"HERE IS THE UPDATED CODE: ok", " ok"},
		{"Replace lines 3 to 7 with the following code:\n```js\nx\n```", "\n```js\nx\n```"},
		{"replace LINES 10 to 12 WITH the following code:", ""},
		{"Nothing to strip.", "Nothing to strip."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripBoilerplate(tt.in), tt.in)
	}
}

func TestStripBoilerplate_Idempotent(t *testing.T) {
	inputs := []string{
		"Here's the Here's the updated code: updated code: fixed it",
		"Replace lines 1 to 2 with the following code:Replace lines 3 to 4 with the following code:",
		"Here's the updated code:\n\nHere is the complete code:",
		"plain text",
		"",
	}
	for _, in := range inputs {
		once := StripBoilerplate(in)
		assert.Equal(t, once, StripBoilerplate(once), in)
	}
}

func TestStripFences(t *testing.T) {
	in := "Added two helpers.\n```js\nfunction a() {}\n```\nand\n```\nb\n```"
	assert.Equal(t, "Added two helpers.\n[Code block applied]\nand\n[Code block applied]", StripFences(in))
	assert.Equal(t, "unterminated ```js\nx", StripFences("unterminated ```js\nx"))
}

func TestMarkApplied(t *testing.T) {
	assert.Equal(t, AppliedPrefix+"I adjusted the margin.", MarkApplied("I adjusted the margin."))
	assert.Equal(t, AppliedPrefix+"Small adjustment made.", MarkApplied("Small adjustment made."))
	assert.Equal(t, "Fixed the loop.", MarkApplied("Fixed the loop."))
	assert.Equal(t, AppliedPrefix+"Adjusted spacing.", MarkApplied("Adjusted spacing."))
	assert.Equal(t, "I readjusted nothing.", MarkApplied("I readjusted nothing."), "match starts at a word boundary")

	once := MarkApplied("adjusted")
	assert.Equal(t, once, MarkApplied(once))
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a\n\nb", NormalizeWhitespace("\n\na\n\n\n\n\nb\n\n"))
	assert.Equal(t, "a\n\nb", NormalizeWhitespace("a\n  \n \t\n\nb"))
	assert.Equal(t, "a\nb", NormalizeWhitespace("a\nb"))
}

func TestExtractCodeBlocks_RoundTrip(t *testing.T) {
	body := "\n  function add(a, b) {\n    return a + b\n  }\n\n"
	blocks := ExtractCodeBlocks("Done.\n```typescript\n" + body + "```\n")

	require.Len(t, blocks, 1)
	assert.Equal(t, CodeBlock{Language: "typescript", Code: strings.TrimSpace(body)}, blocks[0])
}

func TestExtractCodeBlocks_DefaultsAndOrder(t *testing.T) {
	blocks := ExtractCodeBlocks("```\nplain\n```\ntext\n```c++\nint x;\n```")

	require.Len(t, blocks, 2)
	assert.Equal(t, "text", blocks[0].Language)
	assert.Equal(t, "plain", blocks[0].Code)
	assert.Equal(t, "c++", blocks[1].Language)
	assert.Equal(t, "int x;", blocks[1].Code)

	assert.Nil(t, ExtractCodeBlocks("no fences here"))
}

func TestProcess_FullReply(t *testing.T) {
	raw := "Replace lines 2 to 3 with the following code:\n```js\nconst x = 1\n```\n\n\n\nI adjusted the constant."

	res := Process(raw)

	assert.Equal(t, raw, res.OriginalText)
	require.Len(t, res.CodeBlocks, 1)
	assert.Equal(t, "const x = 1", res.CodeBlocks[0].Code)
	assert.Equal(t, AppliedPrefix+"[Code block applied]\n\nI adjusted the constant.", res.DisplayText)
	assert.NotContains(t, res.DisplayText, "const x")
}
