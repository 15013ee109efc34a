package chat

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownSuggestion = errors.New("unknown suggestion")

type suggestion struct {
	withFile string // formatted with the current file name
	empty    string
}

var suggestions = map[string]suggestion{
	"explain": {
		withFile: "Please explain the code in %s and how it works.",
		empty:    "Please explain how to get started with coding in this project.",
	},
	"debug": {
		withFile: "Help me find and fix any bugs or issues in %s.",
		empty:    "Help me understand common debugging techniques for web development.",
	},
	"generate": {
		empty: "Generate a React component with TypeScript for a modern UI.",
	},
	"optimize": {
		withFile: "Optimize the code in %s for better performance and readability.",
		empty:    "Give me tips for writing optimized and clean code.",
	},
}

// Suggestion returns the canned prompt for action. hasContent reports whether
// the current file has any non-blank text.
func Suggestion(action, currentFile string, hasContent bool) (string, error) {
	s, ok := suggestions[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSuggestion, action)
	}
	if hasContent && s.withFile != "" && currentFile != "" {
		return fmt.Sprintf(s.withFile, currentFile), nil
	}
	return s.empty, nil
}

// SuggestionActions lists the known actions.
func SuggestionActions() []string {
	actions := make([]string, 0, len(suggestions))
	for a := range suggestions {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}
