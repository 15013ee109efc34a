// Package highlight renders replies, code and patches for the terminal.
package highlight

import (
	"bytes"
	"strings"

	"pointer/internal/prompt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	okBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0B0F14")).Background(lipgloss.Color("#10B981")).Padding(0, 1)
	warnBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("#0B0F14")).Background(lipgloss.Color("#F59E0B")).Padding(0, 1)
	errBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#EF4444")).Padding(0, 1)
)

// Renderer turns text into styled terminal output. A plain renderer returns
// everything unchanged, for pipes and tests.
type Renderer struct {
	style     string
	plain     bool
	formatter chroma.Formatter
	markdown  *glamour.TermRenderer
}

// New creates a renderer with the given chroma style ("monokai" when empty).
func New(style string, plain bool) *Renderer {
	if style == "" {
		style = "monokai"
	}
	r := &Renderer{style: style, plain: plain, formatter: formatters.Get("terminal256")}
	if !plain {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			r.markdown = md
		}
	}
	return r
}

// Markdown renders a reply. It falls back to the raw text on any error.
func (r *Renderer) Markdown(text string) string {
	if r.plain || r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Code highlights code using the language implied by filename.
func (r *Renderer) Code(code, filename string) string {
	if r.plain {
		return code
	}
	lexer := lexers.Get(prompt.FenceTag(filename))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(r.style)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// Diff colors a unified diff line by line.
func (r *Renderer) Diff(patch string) string {
	if r.plain {
		return patch
	}
	lines := strings.Split(patch, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = headerStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = hunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = addedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removedStyle.Render(line)
		case line != "":
			lines[i] = contextStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// Status renders an apply outcome as a badge followed by detail.
func (r *Renderer) Status(outcome, detail string) string {
	label := strings.ToUpper(outcome)
	if r.plain {
		if detail == "" {
			return "[" + label + "]"
		}
		return "[" + label + "] " + detail
	}

	badge := warnBadge
	switch outcome {
	case "applied", "matched", "repaired":
		badge = okBadge
	case "invalid", "stale", "error", "mismatched":
		badge = errBadge
	}
	if detail == "" {
		return badge.Render(label)
	}
	return badge.Render(label) + " " + detail
}
