package gateway

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/petasbytes/cybercog/internal/invoker"
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/tools"
)

// toMessages maps turns to wire messages. A run of tool turns becomes one
// user message of tool_result blocks, in order.
func toMessages(t transcript.Transcript) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(t))
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, turn := range t {
		if turn.Role == transcript.RoleTool {
			for _, s := range turn.Segments {
				if r, ok := s.(transcript.ToolResult); ok {
					results = append(results, anthropic.NewToolResultBlock(r.RequestID, r.Payload, invoker.IsErrorPayload(r.Payload)))
				}
			}
			continue
		}
		flush()

		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Segments))
		for _, s := range turn.Segments {
			switch v := s.(type) {
			case transcript.Text:
				if v.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(v.Content))
				}
			case transcript.ToolRequest:
				args := json.RawMessage(v.Arguments)
				if len(args) == 0 {
					args = json.RawMessage(`{}`)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(v.ID, args, v.Name))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if turn.Role == transcript.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	flush()
	return out
}

func toTools(descs []tools.ToolDescriptor) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(descs))
	for _, d := range descs {
		schema := anthropic.ToolInputSchemaParam{}
		if d.Schema != nil {
			if d.Schema.Properties != nil && d.Schema.Properties.Len() > 0 {
				schema.Properties = d.Schema.Properties
			}
			schema.Required = d.Schema.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// fromMessage keeps text and tool_use blocks; other block kinds are dropped.
func fromMessage(msg *anthropic.Message) Response {
	var r Response
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			r.Segments = append(r.Segments, transcript.Text{Content: v.Text})
		case anthropic.ToolUseBlock:
			args := []byte(v.JSON.Input.Raw())
			if len(args) == 0 {
				args = []byte(`{}`)
			}
			r.Segments = append(r.Segments, transcript.ToolRequest{ID: v.ID, Name: v.Name, Arguments: args})
		}
	}
	return r
}
