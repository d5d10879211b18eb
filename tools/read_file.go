package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/petasbytes/cybercog/internal/fsops"
)

type ReadFileInput struct {
	Path   string `json:"path" jsonschema_description:"Relative file path."`
	Offset int    `json:"offset,omitempty" jsonschema_description:"Line offset (0-based) to start reading from."`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum lines to return from offset (default 200)."`
}

const (
	defaultReadLimit   = 200
	maxLineRunes       = 2000
	maxReadRunes       = 12_000
	truncationSentinel = "-- truncated; use offset/limit to fetch more --\n"
)

// ReadFileTool pages through a sandboxed text file. Results are capped per
// line and overall; a trailing sentinel marks any truncation.
func ReadFileTool(sb *fsops.Sandbox) ToolDefinition {
	return ToolDefinition{
		Name:        "read_file",
		Description: "Read the contents of a file addressed by a relative file path within the workspace. Directory paths and unsafe paths are rejected.",
		InputSchema: GenerateSchema[ReadFileInput](),
		Mode:        Blocking,
		Result:      StringResult,
		Function: func(_ context.Context, input json.RawMessage) (any, error) {
			in, err := decode[ReadFileInput](input)
			if err != nil {
				return nil, err
			}
			limit := in.Limit
			if limit <= 0 {
				limit = defaultReadLimit
			}
			page, err := sb.ReadLines(in.Path, max(in.Offset, 0), limit, maxLineRunes, maxReadRunes)
			if err != nil {
				return nil, err
			}
			return formatPage(page), nil
		},
	}
}

// formatPage joins the window, applies the overall cap and appends the
// sentinel when anything was left out.
func formatPage(p fsops.Page) string {
	out := strings.Join(p.Lines, "\n")
	truncated := p.More
	if r := []rune(out); len(r) > maxReadRunes {
		out = string(r[:maxReadRunes])
		truncated = true
	}
	if !truncated {
		return out
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out + truncationSentinel
}
