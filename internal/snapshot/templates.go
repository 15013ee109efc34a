package snapshot

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var nonIdent = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DefaultContent returns the starter text for a new file, chosen by extension.
func DefaultContent(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	stem := strings.TrimSuffix(name, path.Ext(name))
	component := nonIdent.ReplaceAllString(stem, "")

	switch ext {
	case "js", "ts":
		return fmt.Sprintf("// %s\nconsole.log(\"Hello from %s\");\n", name, name)
	case "jsx":
		return fmt.Sprintf("import React from 'react';\n\nfunction %[2]s() {\n  return (\n    <div>\n      <h1>Hello from %[1]s</h1>\n    </div>\n  );\n}\n\nexport default %[2]s;\n", name, component)
	case "tsx":
		return fmt.Sprintf("import React from 'react';\n\ninterface Props {}\n\nfunction %[2]s({}: Props) {\n  return (\n    <div>\n      <h1>Hello from %[1]s</h1>\n    </div>\n  );\n}\n\nexport default %[2]s;\n", name, component)
	case "py":
		return fmt.Sprintf("# %s\nprint(\"Hello from %s\")\n", name, name)
	case "css":
		return fmt.Sprintf("/* %s */\nbody {\n  font-family: Arial, sans-serif;\n  margin: 0;\n  padding: 20px;\n}\n", name)
	case "html":
		return fmt.Sprintf("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n  <meta charset=\"UTF-8\">\n  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n  <title>%s</title>\n</head>\n<body>\n  <h1>Hello from %s</h1>\n</body>\n</html>\n", stem, name)
	case "md":
		return fmt.Sprintf("# %s\n\nWelcome to your new markdown file!\n", stem)
	case "json":
		return fmt.Sprintf("{\n  \"name\": \"%s\",\n  \"version\": \"1.0.0\"\n}\n", stem)
	default:
		return fmt.Sprintf("// %s\n// Start coding here!\n", name)
	}
}
