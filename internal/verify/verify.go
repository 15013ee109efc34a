// Package verify re-reads a line range edit and, when the expected text is not
// where it should be, re-anchors it on the enclosing brace block.
//
// The repair assumes brace delimited blocks. On Python, YAML and other brace
// free text it can replace the wrong span; set the mode to RepairOff there.
package verify

import (
	"strings"
)

// RepairMode selects what happens on a mismatch.
type RepairMode string

const (
	RepairBrace RepairMode = "brace"
	RepairOff   RepairMode = "off"
)

// ParseRepairMode reads a config value. Only "off" disables repair.
func ParseRepairMode(s string) RepairMode {
	if RepairMode(strings.ToLower(strings.TrimSpace(s))) == RepairOff {
		return RepairOff
	}
	return RepairBrace
}

// Outcome of a verification.
type Outcome struct {
	Matched  bool
	Repaired bool
	Content  string
}

// Label is the metric label for o.
func (o Outcome) Label() string {
	switch {
	case o.Matched:
		return "matched"
	case o.Repaired:
		return "repaired"
	default:
		return "mismatched"
	}
}

// Check reports whether content holds body starting at line start. The window
// is as long as the trimmed body, so it agrees with the post-splice numbering
// even when the replaced range had a different length.
func Check(content string, start int, body string) bool {
	lines := strings.Split(content, "\n")
	trimmed := strings.TrimSpace(body)
	n := len(strings.Split(trimmed, "\n"))
	from := start - 1
	if from < 0 || from+n > len(lines) {
		return false
	}
	window := strings.Join(lines[from:from+n], "\n")
	return strings.TrimSpace(window) == trimmed
}

// Repair replaces the brace block around start with body. The block opens at
// the nearest line at or above start containing "{" and closes where the brace
// depth counted from that line returns to zero. When no block encloses start,
// or it never closes, the requested start..end span is used instead.
func Repair(content string, start, end int, body string) string {
	lines := strings.Split(content, "\n")
	from := min(max(start-1, 0), len(lines))
	trueStart, trueEnd := from, min(max(end, from), len(lines))

	if anchor := openingAbove(lines, from); anchor >= 0 {
		if closing := closingLine(lines, anchor); closing >= from {
			trueStart, trueEnd = anchor, closing+1
		} else if closing < 0 {
			trueStart = anchor
		}
	}

	out := make([]string, 0, len(lines))
	out = append(out, lines[:trueStart]...)
	out = append(out, strings.Split(body, "\n")...)
	out = append(out, lines[trueEnd:]...)
	return strings.Join(out, "\n")
}

func openingAbove(lines []string, from int) int {
	for i := min(from, len(lines)-1); i >= 0; i-- {
		if strings.Contains(lines[i], "{") {
			return i
		}
	}
	return -1
}

// closingLine returns the line where the block opened at anchor closes, or -1.
func closingLine(lines []string, anchor int) int {
	depth := 0
	for i := anchor; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if depth <= 0 {
			return i
		}
	}
	return -1
}

// VerifyAndRepair checks the edit and repairs it according to mode.
func VerifyAndRepair(content string, start, end int, body string, mode RepairMode) Outcome {
	if Check(content, start, body) {
		return Outcome{Matched: true, Content: content}
	}
	if mode != RepairBrace {
		return Outcome{Content: content}
	}
	return Outcome{Repaired: true, Content: Repair(content, start, end, body)}
}
