// Package transcript models the conversation exchanged with the model for one
// query: an ordered, append-only sequence of turns made of segments.
//
// Invariant:
//   - every ToolResult references a ToolRequest of the assistant turn that
//     directly precedes the run of tool turns it belongs to.
//
// Flow:
//
//	user(text) -> assistant(text?, tool_request...) -> tool(result)... -> assistant(text)
package transcript

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Segment is one unit of content inside a Turn: Text, ToolRequest or ToolResult.
type Segment interface {
	isSegment()
}

type Text struct {
	Content string
}

// ToolRequest is a tool invocation asked for by the model. Arguments holds a
// JSON object keyed by parameter name.
type ToolRequest struct {
	ID        string
	Name      string
	Arguments []byte
}

type ToolResult struct {
	RequestID string
	Payload   string
}

func (Text) isSegment()        {}
func (ToolRequest) isSegment() {}
func (ToolResult) isSegment()  {}

type Turn struct {
	Role     Role
	Segments []Segment
}

// Transcript is ordered oldest to newest.
type Transcript []Turn

func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Segments: []Segment{Text{Content: text}}}
}

func AssistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Segments: []Segment{Text{Content: text}}}
}

func ToolTurn(requestID, payload string) Turn {
	return Turn{Role: RoleTool, Segments: []Segment{ToolResult{RequestID: requestID, Payload: payload}}}
}

// Clone returns a copy whose turn slice can be appended to without touching t.
// Segments are immutable values and are shared.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// ToolRequests returns the ToolRequest segments of a turn in order.
func (u Turn) ToolRequests() []ToolRequest {
	var out []ToolRequest
	for _, s := range u.Segments {
		if tr, ok := s.(ToolRequest); ok {
			out = append(out, tr)
		}
	}
	return out
}

// Text concatenates the Text segments of a turn.
func (u Turn) Text() string {
	var b strings.Builder
	for _, s := range u.Segments {
		if tx, ok := s.(Text); ok {
			b.WriteString(tx.Content)
		}
	}
	return b.String()
}

// Chars is the rune count of all text and tool result payloads in the transcript.
func (t Transcript) Chars() int {
	n := 0
	for _, turn := range t {
		for _, s := range turn.Segments {
			switch v := s.(type) {
			case Text:
				n += utf8.RuneCountInString(v.Content)
			case ToolResult:
				n += utf8.RuneCountInString(v.Payload)
			}
		}
	}
	return n
}

// Validate checks segment placement and the tool result pairing invariant.
func (t Transcript) Validate() error {
	var open map[string]bool // request ids of the latest assistant turn
	for i, turn := range t {
		switch turn.Role {
		case RoleUser:
			open = nil
			for _, s := range turn.Segments {
				if _, ok := s.(Text); !ok {
					return fmt.Errorf("turn %d: user turn may only hold text, got %T", i, s)
				}
			}
		case RoleAssistant:
			open = map[string]bool{}
			for _, s := range turn.Segments {
				switch v := s.(type) {
				case Text:
				case ToolRequest:
					if v.ID == "" {
						return fmt.Errorf("turn %d: tool request without id", i)
					}
					open[v.ID] = true
				default:
					return fmt.Errorf("turn %d: assistant turn may not hold %T", i, s)
				}
			}
		case RoleTool:
			for _, s := range turn.Segments {
				res, ok := s.(ToolResult)
				if !ok {
					return fmt.Errorf("turn %d: tool turn may only hold results, got %T", i, s)
				}
				if !open[res.RequestID] {
					return fmt.Errorf("turn %d: result for unknown request %q", i, res.RequestID)
				}
			}
		default:
			return fmt.Errorf("turn %d: unknown role %q", i, turn.Role)
		}
	}
	return nil
}
