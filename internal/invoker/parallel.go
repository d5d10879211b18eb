package invoker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/petasbytes/cybercog/tools"
)

const ParallelToolName = "multi_tool_use_parallel"

// Keys accepted for the target tool of one entry, in priority order.
var recipientKeys = []string{"recipient_name", "toolName", "tool_name"}

// ParallelTool fans out over inv. Input:
//
//	{"tool_uses": [{"recipient_name": "read_file", "parameters": {"path": "a.txt"}}, ...]}
//
// The result is a JSON array of each entry's payload in input order.
func ParallelTool(inv *Invoker) tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        ParallelToolName,
		Description: "Execute multiple tool uses in parallel. Each entry names a registered tool in recipient_name and its arguments in parameters; results come back in the same order.",
		InputSchema: parallelSchema(),
		Mode:        tools.NonBlocking,
		Result:      tools.StructuredResult,
		Function: func(ctx context.Context, input json.RawMessage) (any, error) {
			uses := gjson.GetBytes(input, "tool_uses")
			if !uses.IsArray() {
				return nil, errors.New("tool_uses must be an array")
			}
			entries := uses.Array()
			results := make([]string, len(entries))

			// Invoke never fails, so the group only joins.
			var g errgroup.Group
			for i, entry := range entries {
				g.Go(func() error {
					name := recipient(entry)
					if name == "" {
						results[i] = ErrorPayload("tool use entry has no recipient_name")
						return nil
					}
					params := json.RawMessage(`{}`)
					if p := entry.Get("parameters"); p.IsObject() {
						params = json.RawMessage(p.Raw)
					}
					results[i] = inv.Invoke(ctx, name, params)
					return nil
				})
			}
			_ = g.Wait()
			return results, nil
		},
	}
}

// RegisterParallel adds multi_tool_use_parallel to reg.
func RegisterParallel(reg *tools.Registry, inv *Invoker) error {
	_, err := reg.Register(ParallelTool(inv))
	return err
}

func recipient(entry gjson.Result) string {
	for _, k := range recipientKeys {
		if v := entry.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func parallelSchema() *jsonschema.Schema {
	item := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties(), Required: []string{"recipient_name", "parameters"}}
	item.Properties.Set("recipient_name", &jsonschema.Schema{Type: "string", Description: "Name of the tool to run."})
	item.Properties.Set("parameters", &jsonschema.Schema{Type: "object", Description: "Arguments for that tool."})

	schema := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties(), Required: []string{"tool_uses"}}
	schema.Properties.Set("tool_uses", &jsonschema.Schema{
		Type:        "array",
		Description: "A list of tool use objects, each containing recipient_name and parameters.",
		Items:       item,
	})
	return schema
}
