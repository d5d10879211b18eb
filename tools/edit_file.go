package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/petasbytes/cybercog/internal/fsops"
)

type EditFileInput struct {
	Path   string `json:"path" jsonschema_description:"Target relative file path"`
	OldStr string `json:"old_str" jsonschema_description:"Exact text to replace; must be present when editing an existing file."`
	NewStr string `json:"new_str" jsonschema_description:"New text to write or replace old_str with"`
}

func EditFileTool(sb *fsops.Sandbox) ToolDefinition {
	return ToolDefinition{
		Name: "edit_file",
		Description: `Create or modify a text file addressed by a relative path within the workspace.

When old_str is empty and the file doesn't exist, a new file is created.

When editing an existing file, all occurrences of old_str are replaced with new_str; old_str and new_str must be different.
`,
		InputSchema: GenerateSchema[EditFileInput](),
		Mode:        Blocking,
		Result:      StringResult,
		Function: func(_ context.Context, input json.RawMessage) (any, error) {
			in, err := decode[EditFileInput](input)
			if err != nil {
				return nil, err
			}
			return editFile(sb, in)
		},
	}
}

func editFile(sb *fsops.Sandbox, in EditFileInput) (string, error) {
	if in.Path == "" || in.OldStr == in.NewStr {
		return "", errors.New("invalid edit parameters")
	}

	current, err := sb.ReadFile(in.Path)
	switch {
	case fsops.IsNotExist(err) && in.OldStr == "":
		if err := sb.WriteFile(in.Path, in.NewStr); err != nil {
			return "", err
		}
		return fmt.Sprintf("Successfully created file %s", in.Path), nil
	case err != nil:
		return "", err
	case in.OldStr == "":
		return "", errors.New("old_str must be provided when editing an existing file")
	}

	if !strings.Contains(current, in.OldStr) {
		return "", errors.New("old_str not found in file")
	}
	if err := sb.WriteFile(in.Path, strings.ReplaceAll(current, in.OldStr, in.NewStr)); err != nil {
		return "", err
	}
	return "OK", nil
}
