package apply

import (
	"fmt"
	"strings"
)

// Result of applying an Instruction.
type Result struct {
	Strategy Kind
	Content  string
	Changed  bool
	Summary  Summary
}

// SplitLines splits on "\n". Empty content is one empty line.
func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}

// ReplaceRange replaces lines start..end (1-based, inclusive) with body.
// It validates first and never returns partially edited content.
func ReplaceRange(content string, start, end int, body string) (string, error) {
	lines := SplitLines(content)
	if start < 1 || end > len(lines) || start > end {
		return content, &InvalidInstructionError{Start: start, End: end, Lines: len(lines)}
	}

	replacement := SplitLines(body)
	out := make([]string, 0, len(lines)-(end-start+1)+len(replacement))
	out = append(out, lines[:start-1]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n"), nil
}

// ReplaceWhole returns body as the new content.
func ReplaceWhole(_ string, body string) string {
	return body
}

// Apply runs ins against content. On error the returned Result holds the
// original content unchanged.
func Apply(content string, ins Instruction) (Result, error) {
	res := Result{Strategy: ins.Kind, Content: content}

	switch ins.Kind {
	case KindNoOp:
		return res, nil
	case KindReplaceRange:
		updated, err := ReplaceRange(content, ins.Start, ins.End, ins.Body)
		if err != nil {
			return res, err
		}
		res.Content = updated
	case KindReplaceWhole:
		res.Content = ReplaceWhole(content, ins.Body)
	default:
		return res, fmt.Errorf("%w: unknown kind %d", ErrInvalidInstruction, ins.Kind)
	}

	res.Changed = res.Content != content
	res.Summary = Summarize(content, res.Content)
	return res, nil
}
