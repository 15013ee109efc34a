package apply

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summary describes an edit line by line.
type Summary struct {
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	Patch        string `json:"patch,omitempty"`
}

// Summarize diffs before and after in line mode.
func Summarize(before, after string) Summary {
	if before == after {
		return Summary{}
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var s Summary
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.LinesAdded += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			s.LinesRemoved += countLines(d.Text)
		}
	}
	s.Patch = dmp.PatchToText(dmp.PatchMake(before, diffs))
	return s
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
