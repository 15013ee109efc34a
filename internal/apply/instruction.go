// Package apply turns a parsed assistant reply into new file content.
package apply

import (
	"regexp"
	"strconv"
	"strings"

	"pointer/internal/postprocess"
)

// GrammarVersion identifies the textual edit convention the prompt asks for and
// ParseInstruction understands. Bump it when either side changes.
const GrammarVersion = 1

// LineRangePhrase is the exact convention the model is told to use.
const LineRangePhrase = "Replace lines X to Y with the following code:"

var lineRangeRe = regexp.MustCompile(`(?i)Replace lines (\d+) to (\d+) with the following code:`)

// Kind tags an Instruction.
type Kind int

const (
	KindNoOp Kind = iota
	KindReplaceRange
	KindReplaceWhole
)

func (k Kind) String() string {
	switch k {
	case KindReplaceRange:
		return "replace_range"
	case KindReplaceWhole:
		return "replace_whole"
	default:
		return "noop"
	}
}

// Instruction is the edit one reply asks for. Start and End are 1-based and
// inclusive, and only meaningful for KindReplaceRange.
type Instruction struct {
	Kind  Kind
	Start int
	End   int
	Body  string
}

// ParseInstruction decides what a reply wants done to the current file.
//
//   - no code blocks, or no current file: NoOp
//   - the line range phrase anywhere in the original text: ReplaceRange with the first block
//   - a non-empty first block: ReplaceWhole
//   - otherwise NoOp, leaving the blocks for manual apply
//
// Line numbers that do not fit an int parse as 0 so validation rejects them.
func ParseInstruction(originalText string, blocks []postprocess.CodeBlock, fileExists bool) Instruction {
	if len(blocks) == 0 || !fileExists {
		return Instruction{Kind: KindNoOp}
	}
	first := blocks[0].Code

	if m := lineRangeRe.FindStringSubmatch(originalText); m != nil {
		return Instruction{
			Kind:  KindReplaceRange,
			Start: atoiOrZero(m[1]),
			End:   atoiOrZero(m[2]),
			Body:  first,
		}
	}

	if strings.TrimSpace(first) != "" {
		return Instruction{Kind: KindReplaceWhole, Body: first}
	}
	return Instruction{Kind: KindNoOp}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
