package apply

import (
	"strings"

	"pointer/internal/postprocess"

	"github.com/sourcegraph/go-diff/diff"
)

// Decision is the user's answer when pasted code looks like a diff.
type Decision int

const (
	DecisionUndecided Decision = iota
	DecisionExtract
	DecisionAbort
)

// ParseDecision maps the wire values "extract" and "abort".
func ParseDecision(s string) Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "extract":
		return DecisionExtract
	case "abort":
		return DecisionAbort
	}
	return DecisionUndecided
}

// ApplyManual applies a code block the user chose to apply.
//
// Plain code replaces the file. Code carrying all three unified diff markers
// needs a Decision: undecided returns *UnsupportedFormatError, abort keeps the
// file, extract keeps only the added lines. Extraction drops context and
// removed lines, so it is only right for a diff that rewrites the whole file;
// multi-hunk and multi-file diffs come out wrong.
func ApplyManual(content, code string, decision Decision) (Result, error) {
	res := Result{Strategy: KindReplaceWhole, Content: content}

	if postprocess.IsUnifiedDiff(code) {
		added := AddedLines(code)
		switch decision {
		case DecisionUndecided:
			return res, &UnsupportedFormatError{AddedLines: len(added)}
		case DecisionAbort:
			res.Strategy = KindNoOp
			return res, nil
		}
		if len(added) > 0 {
			res.Content = strings.Join(added, "\n")
		} else {
			res.Content = code
		}
	} else {
		res.Content = ReplaceWhole(content, code)
	}

	res.Changed = res.Content != content
	res.Summary = Summarize(content, res.Content)
	return res, nil
}

// AddedLines returns the "+" lines of a unified diff without their prefix.
// Well formed diffs are read hunk by hunk; anything else falls back to a raw scan.
func AddedLines(patch string) []string {
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err == nil && hasHunks(fileDiffs) {
		var lines []string
		for _, fd := range fileDiffs {
			for _, hunk := range fd.Hunks {
				lines = append(lines, scanAdded(string(hunk.Body))...)
			}
		}
		return lines
	}
	return scanAdded(patch)
}

func hasHunks(fileDiffs []*diff.FileDiff) bool {
	for _, fd := range fileDiffs {
		if len(fd.Hunks) > 0 {
			return true
		}
	}
	return false
}

func scanAdded(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			lines = append(lines, strings.TrimPrefix(line, "+"))
		}
	}
	return lines
}
