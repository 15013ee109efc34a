package verify

import (
	"testing"

	"pointer/internal/apply"

	"github.com/stretchr/testify/assert"
)

func TestCheck_AfterRangeReplacement(t *testing.T) {
	body := "X\nY\nZ"
	applied, err := apply.ReplaceRange("a\nb\nc\nd\ne", 2, 3, body)
	assert.NoError(t, err)

	// replacement is longer than the range; the window follows the body length
	assert.True(t, Check(applied, 2, body))
	assert.False(t, Check(applied, 1, body))
	assert.False(t, Check(applied, 5, body), "window past the end never matches")
}

func TestCheck_TrimsBothSides(t *testing.T) {
	assert.True(t, Check("a\n  x = 1  \nc", 2, "x = 1\n"))
}

func TestRepair_ReanchorsOnBraceBlock(t *testing.T) {
	content := "function a() {\n  return 1\n}\nfunction b() {\n  stale()\n}\nend"
	body := "function b() {\n  fresh()\n}"

	// the model pointed at the body line instead of the function header
	got := Repair(content, 5, 5, body)
	assert.Equal(t, "function a() {\n  return 1\n}\nfunction b() {\n  fresh()\n}\nend", got)
}

func TestRepair_BlockClosedBeforeStart(t *testing.T) {
	content := "if (x) {\n  y()\n}\nz()"
	// the nearest brace block ends above line 4, so only the requested span is replaced
	assert.Equal(t, "if (x) {\n  y()\n}\nw()", Repair(content, 4, 4, "w()"))
}

func TestRepair_UnclosedBlockKeepsRequestedEnd(t *testing.T) {
	content := "func() {\n  a\n  b\n  c"
	assert.Equal(t, "NEW\n  c", Repair(content, 2, 3, "NEW"))
}

func TestRepair_NoBraces(t *testing.T) {
	// brace free text: falls back to the requested span
	assert.Equal(t, "a\nX\nd", Repair("a\nb\nc\nd", 2, 3, "X"))
}

func TestRepair_ClampsOutOfRange(t *testing.T) {
	assert.NotPanics(t, func() { Repair("a\nb", 10, 12, "x") })
	assert.NotPanics(t, func() { Repair("a\nb", 0, 0, "x") })
}

func TestVerifyAndRepair(t *testing.T) {
	content := "a\nX\nb"

	matched := VerifyAndRepair(content, 2, 2, "X", RepairBrace)
	assert.True(t, matched.Matched)
	assert.Equal(t, content, matched.Content)
	assert.Equal(t, "matched", matched.Label())

	off := VerifyAndRepair(content, 1, 1, "X", RepairOff)
	assert.False(t, off.Matched)
	assert.False(t, off.Repaired)
	assert.Equal(t, content, off.Content)
	assert.Equal(t, "mismatched", off.Label())

	repaired := VerifyAndRepair("fn() {\n old\n}", 2, 2, "fn() {\n new\n}", RepairBrace)
	assert.True(t, repaired.Repaired)
	assert.Equal(t, "repaired", repaired.Label())
}

func TestVerifyAndRepair_UntrimmedBody(t *testing.T) {
	// a trailing newline does not widen the window past the spliced line
	got := VerifyAndRepair("a\nX\nb", 2, 2, "X\n", RepairBrace)
	assert.True(t, got.Matched)
	assert.Equal(t, "a\nX\nb", got.Content)
}

func TestCheck_LeadingBlankLineShiftsBody(t *testing.T) {
	applied, err := apply.ReplaceRange("a\nb\nc", 2, 2, "\nX")
	assert.NoError(t, err)
	assert.Equal(t, "a\n\nX\nc", applied)

	// the trimmed body sits one line below the requested start
	assert.False(t, Check(applied, 2, "\nX"))
	assert.True(t, Check(applied, 3, "\nX"))
}

func TestParseRepairMode(t *testing.T) {
	assert.Equal(t, RepairOff, ParseRepairMode("off"))
	assert.Equal(t, RepairOff, ParseRepairMode(" OFF "))
	assert.Equal(t, RepairBrace, ParseRepairMode("brace"))
	assert.Equal(t, RepairBrace, ParseRepairMode("Brace"))
	assert.Equal(t, RepairBrace, ParseRepairMode(""))
	assert.Equal(t, RepairBrace, ParseRepairMode("bogus"))
}
