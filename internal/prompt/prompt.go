// Package prompt turns the chat history and the project into the payload sent
// to a completion provider. Building never fails; missing context is defaulted.
package prompt

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"pointer/internal/apply"
	"pointer/internal/client"
	"pointer/internal/config"
	"pointer/internal/logging"
	"pointer/internal/snapshot"

	"github.com/bmatcuk/doublestar/v4"
)

// Directives is the fixed part of every system instruction.
var Directives = `You are a fast coding assistant for Pointer IDE. You make direct edits to files.

When the user asks for changes:
1. Understand what they want
2. Apply the changes to the complete code
3. Provide the updated code in a fenced code block (it is applied automatically)
4. Keep the response brief and just say what you did

To change only part of the current file, write the exact phrase
"` + apply.LineRangePhrase + `"
with X and Y replaced by 1-based inclusive line numbers, immediately followed by one fenced code block holding the new lines.

ABSOLUTE RULES:
- ALWAYS provide complete, working code in fenced code blocks
- NEVER show code outside a fenced code block
- NEVER use diff or patch format (no +/- lines, no --- a/ or +++ b/ headers, no @@ hunks)
- Keep responses brief and focus on accuracy
- Just say what you did, don't explain the code`

// FileInfo is the per-file entry of the project structure.
type FileInfo struct {
	Type  string `json:"type"`
	Lines int    `json:"lines"`
}

// Context is the project state attached to a request. Every field is optional.
type Context struct {
	CurrentFile      string              `json:"currentFile,omitempty"`
	FileContent      string              `json:"fileContent,omitempty"`
	AllFiles         []string            `json:"allFiles,omitempty"`
	AllFileContents  map[string]string   `json:"allFileContents,omitempty"`
	FileTree         any                 `json:"fileTree,omitempty"`
	ProjectStructure map[string]FileInfo `json:"projectStructure,omitempty"`
}

// Payload is what the gateway sends.
type Payload struct {
	SystemInstruction string
	Messages          []client.Message
}

// Options tunes how the other files are dumped.
type Options struct {
	InlineExtensions []string
	InlineMaxChars   int
	Exclude          []string
}

// DefaultOptions inlines web sources up to 10000 characters.
func DefaultOptions() Options {
	return Options{
		InlineExtensions: []string{"js", "jsx", "ts", "tsx", "css", "html", "json"},
		InlineMaxChars:   config.DefaultInlineMaxChars,
	}
}

// OptionsFromConfig reads the prompt section, falling back to defaults for unset fields.
func OptionsFromConfig(cfg config.PromptConfig) Options {
	opts := DefaultOptions()
	if len(cfg.InlineExtensions) > 0 {
		opts.InlineExtensions = cfg.InlineExtensions
	}
	if cfg.InlineMaxChars > 0 {
		opts.InlineMaxChars = cfg.InlineMaxChars
	}
	opts.Exclude = cfg.Exclude
	return opts
}

// Builder assembles payloads.
type Builder struct {
	opts   Options
	inline map[string]bool
}

// NewBuilder creates a builder. Invalid exclude patterns are dropped with a warning.
func NewBuilder(opts Options) *Builder {
	b := &Builder{inline: make(map[string]bool, len(opts.InlineExtensions))}
	for _, ext := range opts.InlineExtensions {
		b.inline[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	kept := opts.Exclude[:0:0]
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			logging.Warn("ignoring invalid prompt exclude pattern", "pattern", pattern)
			continue
		}
		kept = append(kept, pattern)
	}
	opts.Exclude = kept
	b.opts = opts
	return b
}

// Build uses the default options.
func Build(history []client.Message, ctx *Context) Payload {
	return NewBuilder(DefaultOptions()).Build(history, ctx)
}

// Build renders the system instruction and copies the history. Roles pass
// through unchanged.
func (b *Builder) Build(history []client.Message, ctx *Context) Payload {
	messages := make([]client.Message, len(history))
	copy(messages, history)

	instruction := Directives
	if ctx != nil {
		instruction += "\n\n" + b.renderContext(ctx)
	}
	return Payload{SystemInstruction: instruction, Messages: messages}
}

func (b *Builder) excluded(p string) bool {
	for _, pattern := range b.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

func (b *Builder) renderContext(ctx *Context) string {
	var sb strings.Builder

	current := ctx.CurrentFile
	if current == "" {
		current = "None"
	}
	allFiles := b.filter(ctx.AllFiles)

	sb.WriteString("PROJECT CONTEXT:\n")
	fmt.Fprintf(&sb, "- Current File: %s\n", current)
	fmt.Fprintf(&sb, "- Total Files: %d\n", len(allFiles))

	sb.WriteString("\nFILE TREE STRUCTURE:\n")
	tree := ctx.FileTree
	if tree == nil {
		tree = allFiles
	}
	treeJSON, err := json.Marshal(tree)
	if err != nil {
		logging.Debug("file tree is not serializable", "error", err)
		treeJSON = []byte("[]")
	}
	sb.Write(treeJSON)
	sb.WriteString("\n")

	if structure := b.renderStructure(ctx.ProjectStructure); structure != "" {
		sb.WriteString("\nPROJECT STRUCTURE:\n")
		sb.WriteString(structure)
	}

	content := ctx.FileContent
	if content == "" {
		content = "No content"
	}
	sb.WriteString("\nCurrent File Content:\n")
	sb.WriteString("```" + FenceTag(ctx.CurrentFile) + "\n")
	sb.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```")

	if others := b.renderOthers(ctx); others != "" {
		sb.WriteString("\n\nALL OTHER FILES:")
		sb.WriteString(others)
	}
	return sb.String()
}

func (b *Builder) filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !b.excluded(p) {
			out = append(out, p)
		}
	}
	return out
}

func (b *Builder) renderStructure(structure map[string]FileInfo) string {
	paths := make([]string, 0, len(structure))
	for p := range structure {
		if !b.excluded(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&sb, "%s (%d lines)\n", p, structure[p].Lines)
	}
	return sb.String()
}

func (b *Builder) renderOthers(ctx *Context) string {
	paths := make([]string, 0, len(ctx.AllFileContents))
	for p := range ctx.AllFileContents {
		if p == ctx.CurrentFile || b.excluded(p) {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		content := ctx.AllFileContents[p]
		size := utf8.RuneCountInString(content)
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
		if !b.inline[ext] || size > b.opts.InlineMaxChars {
			fmt.Fprintf(&sb, "\n=== %s === (%d chars)", p, size)
			continue
		}
		fmt.Fprintf(&sb, "\n=== %s ===\n%s", p, content)
	}
	return sb.String()
}

// FromSnapshot builds the context for currentFile out of the whole project.
func FromSnapshot(s *snapshot.Snapshot, currentFile string) *Context {
	if key, err := snapshot.Normalize(currentFile); err == nil {
		currentFile = key
	}
	counts := s.LineCounts()
	structure := make(map[string]FileInfo, len(counts))
	for p, n := range counts {
		structure[p] = FileInfo{Type: "file", Lines: n}
	}
	return &Context{
		CurrentFile:      currentFile,
		FileContent:      s.Content(currentFile),
		AllFiles:         s.Paths(),
		AllFileContents:  s.Contents(),
		ProjectStructure: structure,
	}
}
