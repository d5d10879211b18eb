package tools

import (
	"github.com/petasbytes/cybercog/internal/fsops"
)

// Builtins returns the tool definitions shipped with the binary.
// multi_tool_use_parallel is registered by the invoker package.
func Builtins(sb *fsops.Sandbox) []ToolDefinition {
	return []ToolDefinition{
		ReadFileTool(sb),
		ListFilesTool(sb),
		EditFileTool(sb),
		CurrentTimeTool(nil),
	}
}
