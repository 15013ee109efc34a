// Package postprocess turns raw model output into the chat transcript text and
// the list of fenced code blocks the applicator works from.
package postprocess

import (
	"regexp"
	"strings"
)

// DiffBanner is prepended when the model answered with unified diff syntax.
const DiffBanner = "⚠️ WARNING: I accidentally provided diff format. Please ask me to provide the changes using the 'Replace lines X to Y' format instead. I should not use diff format with + and - symbols.\n\n"

// AppliedPrefix marks replies that say an adjustment was made.
const AppliedPrefix = "✅ CHANGES APPLIED: "

// FencePlaceholder replaces every fenced region in the transcript.
const FencePlaceholder = "[Code block applied]"

// DefaultLanguage is used for fences without a tag.
const DefaultLanguage = "text"

var diffMarkers = []string{"--- a/", "+++ b/", "@@"}

var (
	fenceRe     = regexp.MustCompile("(?s)```.*?```")
	codeBlockRe = regexp.MustCompile("(?s)```([\\w+#.-]+)?[ \\t]*\\r?\\n(.*?)```")
	blankRunRe  = regexp.MustCompile(`\n\s*\n\s*\n`)
	adjustedRe  = regexp.MustCompile(`(?i)\badjust(ed|ment)`)
)

// boilerplate lists filler phrases removed from the transcript.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?i)replace lines \d+ to \d+ with the following code:`),
	regexp.MustCompile(`(?i)here(?:'s| is) the (?:updated|complete|modified|corrected|full) code:?`),
	regexp.MustCompile(`(?i)here(?:'s| is) the code:`),
	regexp.MustCompile(`(?i)updated code below:?`),
}

// CodeBlock is one fenced region of model output.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Result is the processed reply.
type Result struct {
	DisplayText  string
	OriginalText string
	CodeBlocks   []CodeBlock
	DiffDetected bool
}

// Process runs every step on raw. Code blocks come from the untouched text.
func Process(raw string) Result {
	res := Result{
		OriginalText: raw,
		CodeBlocks:   ExtractCodeBlocks(raw),
		DiffDetected: DetectDiff(raw),
	}

	text := raw
	if res.DiffDetected {
		text = AddDiffBanner(text)
	}
	text = StripBoilerplate(text)
	text = StripFences(text)
	text = NormalizeWhitespace(text)
	res.DisplayText = MarkApplied(text)
	return res
}

// DetectDiff reports whether text contains any unified diff marker.
func DetectDiff(text string) bool {
	for _, m := range diffMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// IsUnifiedDiff is the stricter check used for pasted code: all markers present.
func IsUnifiedDiff(text string) bool {
	for _, m := range diffMarkers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}

// AddDiffBanner prepends the diff warning unless it is already there.
func AddDiffBanner(text string) string {
	if strings.HasPrefix(text, DiffBanner) {
		return text
	}
	return DiffBanner + text
}

// StripBoilerplate removes filler phrases until none remain, so a second
// pass is always a no-op.
func StripBoilerplate(text string) string {
	for {
		next := text
		for _, re := range boilerplate {
			next = re.ReplaceAllString(next, "")
		}
		if next == text {
			return text
		}
		text = next
	}
}

// StripFences replaces every complete fenced region with FencePlaceholder.
func StripFences(text string) string {
	return fenceRe.ReplaceAllString(text, FencePlaceholder)
}

// MarkApplied prefixes AppliedPrefix when the text talks about adjustments.
func MarkApplied(text string) string {
	if strings.HasPrefix(text, AppliedPrefix) || !adjustedRe.MatchString(text) {
		return text
	}
	return AppliedPrefix + text
}

// NormalizeWhitespace collapses runs of blank lines to one and trims the ends.
func NormalizeWhitespace(text string) string {
	for {
		next := blankRunRe.ReplaceAllString(text, "\n\n")
		if next == text {
			break
		}
		text = next
	}
	return strings.TrimSpace(text)
}

// ExtractCodeBlocks returns every fenced block in order. A missing tag becomes
// DefaultLanguage and bodies are trimmed.
func ExtractCodeBlocks(text string) []CodeBlock {
	matches := codeBlockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		lang := m[1]
		if lang == "" {
			lang = DefaultLanguage
		}
		blocks = append(blocks, CodeBlock{Language: lang, Code: strings.TrimSpace(m[2])})
	}
	return blocks
}
