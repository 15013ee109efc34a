package prompt

import (
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// fenceTags covers the file types of a web project; anything else goes through chroma.
var fenceTags = map[string]string{
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".jsx":  "jsx",
	".ts":   "typescript",
	".tsx":  "tsx",
	".py":   "python",
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".scss": "scss",
	".json": "json",
	".md":   "markdown",
	".yaml": "yaml",
	".yml":  "yaml",
	".sh":   "bash",
	".go":   "go",
	".sql":  "sql",
}

// FenceTag returns the info string for a fenced block holding the file, or ""
// when the language is unknown.
func FenceTag(filename string) string {
	if filename == "" {
		return ""
	}
	if tag, ok := fenceTags[strings.ToLower(path.Ext(filename))]; ok {
		return tag
	}

	lexer := lexers.Match(path.Base(filename))
	if lexer == nil {
		return ""
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(strings.ReplaceAll(cfg.Name, " ", ""))
}
