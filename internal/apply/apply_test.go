package apply

import (
	"strings"
	"testing"

	"pointer/internal/postprocess"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fiveLines = "a\nb\nc\nd\ne"

func TestReplaceRange_Scenario(t *testing.T) {
	got, err := ReplaceRange(fiveLines, 2, 3, "X\nY\nZ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "X", "Y", "Z", "d", "e"}, SplitLines(got))
}

func TestReplaceRange_OutOfRangeRejected(t *testing.T) {
	got, err := ReplaceRange(fiveLines, 2, 8, "X")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInstruction)
	assert.Equal(t, fiveLines, got)

	var invalid *InvalidInstructionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, InvalidInstructionError{Start: 2, End: 8, Lines: 5}, *invalid)
	assert.Equal(t, "Invalid line numbers: 2 to 8. File has 5 lines.", err.Error())
}

func TestReplaceRange_LineCountProperty(t *testing.T) {
	files := []string{"", "one", fiveLines, "x\n\ny\n", strings.Repeat("line\n", 12)}
	bodies := []string{"", "R", "R1\nR2", "R1\nR2\nR3\nR4"}

	for _, content := range files {
		orig := SplitLines(content)
		n := len(orig)
		for start := 1; start <= n; start++ {
			for end := start; end <= n; end++ {
				for _, body := range bodies {
					got, err := ReplaceRange(content, start, end, body)
					require.NoError(t, err)

					lines := SplitLines(got)
					bodyLines := len(SplitLines(body))
					require.Len(t, lines, n-(end-start+1)+bodyLines)
					assert.Equal(t, orig[:start-1], lines[:start-1], "prefix preserved")
					assert.Equal(t, orig[end:], lines[start-1+bodyLines:], "suffix preserved")
				}
			}
		}
	}
}

func TestReplaceRange_InvalidProperty(t *testing.T) {
	n := len(SplitLines(fiveLines))
	cases := [][2]int{{0, 1}, {-3, 2}, {1, n + 1}, {4, 3}, {6, 6}, {0, 0}}
	for _, c := range cases {
		got, err := ReplaceRange(fiveLines, c[0], c[1], "Z")
		assert.ErrorIs(t, err, ErrInvalidInstruction, "%v", c)
		assert.Equal(t, fiveLines, got, "%v", c)
	}
}

func TestParseInstruction(t *testing.T) {
	block := []postprocess.CodeBlock{{Language: "js", Code: "console.log(1)"}}

	tests := []struct {
		name   string
		text   string
		blocks []postprocess.CodeBlock
		exists bool
		want   Instruction
	}{
		{
			name:   "line range phrase",
			text:   "Replace lines 2 to 3 with the following code:\n```js\nconsole.log(1)\n```",
			blocks: block, exists: true,
			want: Instruction{Kind: KindReplaceRange, Start: 2, End: 3, Body: "console.log(1)"},
		},
		{
			name:   "case insensitive phrase",
			text:   "replace LINES 10 to 12 with THE following code:",
			blocks: block, exists: true,
			want: Instruction{Kind: KindReplaceRange, Start: 10, End: 12, Body: "console.log(1)"},
		},
		{
			name:   "whole file fallback",
			text:   "Added logging.\n```js\nconsole.log(1)\n```",
			blocks: block, exists: true,
			want: Instruction{Kind: KindReplaceWhole, Body: "console.log(1)"},
		},
		{
			name:   "no current file",
			text:   "Added logging.",
			blocks: block, exists: false,
			want: Instruction{Kind: KindNoOp},
		},
		{
			name:   "no blocks",
			text:   "Replace lines 1 to 2 with the following code:",
			exists: true,
			want:   Instruction{Kind: KindNoOp},
		},
		{
			name:   "blank first block",
			text:   "```\n\n```",
			blocks: []postprocess.CodeBlock{{Language: "text", Code: "  "}}, exists: true,
			want: Instruction{Kind: KindNoOp},
		},
		{
			name:   "overflowing numbers fail closed",
			text:   "Replace lines 99999999999999999999 to 2 with the following code:",
			blocks: block, exists: true,
			want: Instruction{Kind: KindReplaceRange, Start: 0, End: 2, Body: "console.log(1)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInstruction(tt.text, tt.blocks, tt.exists))
		})
	}
}

func TestApply_WholeFileScenario(t *testing.T) {
	reply := postprocess.Process("Done.\n```js\nconsole.log(1)\n```")
	ins := ParseInstruction(reply.OriginalText, reply.CodeBlocks, true)

	res, err := Apply("let x = 1\nlet y = 2", ins)
	require.NoError(t, err)
	assert.Equal(t, KindReplaceWhole, res.Strategy)
	assert.Equal(t, "console.log(1)", res.Content)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Summary.LinesAdded)
	assert.Equal(t, 2, res.Summary.LinesRemoved)
	assert.NotEmpty(t, res.Summary.Patch)
}

func TestApply_InvalidLeavesContent(t *testing.T) {
	res, err := Apply(fiveLines, Instruction{Kind: KindReplaceRange, Start: 2, End: 8, Body: "X"})
	assert.ErrorIs(t, err, ErrInvalidInstruction)
	assert.Equal(t, fiveLines, res.Content)
	assert.False(t, res.Changed)
}

func TestApply_NoOp(t *testing.T) {
	res, err := Apply(fiveLines, Instruction{Kind: KindNoOp})
	require.NoError(t, err)
	assert.Equal(t, fiveLines, res.Content)
	assert.False(t, res.Changed)
}

func TestSummarize(t *testing.T) {
	s := Summarize(fiveLines, "a\nX\nY\nZ\nd\ne")
	assert.Equal(t, 3, s.LinesAdded)
	assert.Equal(t, 2, s.LinesRemoved)

	assert.Equal(t, Summary{}, Summarize("same", "same"))
}

const pastedDiff = "--- a/app.js\n+++ b/app.js\n@@ -1,2 +1,3 @@\n-const a = 1\n+const a = 2\n console.log(a)\n+console.log('done')\n"

func TestApplyManual_PlainCode(t *testing.T) {
	res, err := ApplyManual("old", "new code", DecisionUndecided)
	require.NoError(t, err)
	assert.Equal(t, "new code", res.Content)
	assert.Equal(t, KindReplaceWhole, res.Strategy)
}

func TestApplyManual_DiffNeedsDecision(t *testing.T) {
	res, err := ApplyManual("old", pastedDiff, DecisionUndecided)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "old", res.Content)

	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 2, unsupported.AddedLines)
}

func TestApplyManual_DiffAbort(t *testing.T) {
	res, err := ApplyManual("old", pastedDiff, DecisionAbort)
	require.NoError(t, err)
	assert.Equal(t, "old", res.Content)
	assert.False(t, res.Changed)
}

func TestApplyManual_DiffExtract(t *testing.T) {
	res, err := ApplyManual("old", pastedDiff, DecisionExtract)
	require.NoError(t, err)
	// context line "console.log(a)" is dropped: known lossy behavior
	assert.Equal(t, "const a = 2\nconsole.log('done')", res.Content)
}

func TestApplyManual_DiffWithoutAddedLinesKeepsRaw(t *testing.T) {
	onlyRemovals := "--- a/x\n+++ b/x\n@@ -1,1 +0,0 @@\n-gone\n"
	res, err := ApplyManual("old", onlyRemovals, DecisionExtract)
	require.NoError(t, err)
	assert.Equal(t, onlyRemovals, res.Content)
}

func TestAddedLines_MalformedFallsBackToScan(t *testing.T) {
	text := "Here you go:\n--- a/x\n+++ b/x\n@@ garbage\n+kept\n-dropped"
	assert.Equal(t, []string{"kept"}, AddedLines(text))
}

func TestParseDecision(t *testing.T) {
	assert.Equal(t, DecisionExtract, ParseDecision("Extract"))
	assert.Equal(t, DecisionAbort, ParseDecision("abort"))
	assert.Equal(t, DecisionUndecided, ParseDecision(""))
}
