package render

import (
	"os"
	"path/filepath"
	"strings"
)

// PromptParts are the pieces of "<user>@anthropic <path> $ ".
func PromptParts(username, cwd, home string) []Span {
	return []Span{
		{Class: "username", Text: username + "@"},
		{Class: "model", Text: "anthropic "},
		{Class: "path", Text: TildePath(cwd, home) + " $ "},
	}
}

// Prompt is the prompt text without styling.
func Prompt(username, cwd, home string) string {
	var b strings.Builder
	for _, p := range PromptParts(username, cwd, home) {
		b.WriteString(p.Text)
	}
	return b.String()
}

// TildePath replaces a leading home directory with "~".
func TildePath(path, home string) string {
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	if home == "" {
		return path
	}
	home = filepath.Clean(home)
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rest
	}
	return path
}
