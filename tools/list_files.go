package tools

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/petasbytes/cybercog/internal/fsops"
)

type ListFilesInput struct {
	Path     string `json:"path,omitempty" jsonschema_description:"Optional relative path to list files from (defaults to current directory)."`
	Page     int    `json:"page,omitempty" jsonschema_description:"1-based page number (default 1)."`
	PageSize int    `json:"page_size,omitempty" jsonschema_description:"Page size (default 200)."`
}

const defaultListPageSize = 200

// ListFilesTool returns one sorted page of directory entry names. Directories
// end in "/". A page past the end is an empty list.
func ListFilesTool(sb *fsops.Sandbox) ToolDefinition {
	return ToolDefinition{
		Name:        "list_files",
		Description: "List names of files in a directory within the workspace (non-recursive).",
		InputSchema: GenerateSchema[ListFilesInput](),
		Mode:        Blocking,
		Result:      StructuredResult,
		Function: func(_ context.Context, input json.RawMessage) (any, error) {
			in, err := decode[ListFilesInput](input)
			if err != nil {
				return nil, err
			}
			names, err := sb.ListDir(in.Path)
			if err != nil {
				return nil, err
			}
			sort.Strings(names)

			page := max(in.Page, 1)
			size := in.PageSize
			if size <= 0 {
				size = defaultListPageSize
			}
			start := (page - 1) * size
			if start >= len(names) {
				return []string{}, nil
			}
			return names[start:min(start+size, len(names))], nil
		},
	}
}
