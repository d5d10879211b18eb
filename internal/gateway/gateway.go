// Package gateway is the request/response boundary to the chat completion
// endpoint. It translates transcripts and tool descriptors to the wire
// format, retries transient failures and holds no state across calls.
package gateway

import (
	"context"
	"fmt"

	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/tools"
)

// SystemInstruction is sent with every completion request.
const SystemInstruction = "If you don't know what tool to use, just make up a tool name you think you need."

const (
	DefaultModel     = "claude-3-opus-20240229"
	DefaultMaxTokens = 1024
)

// Gateway completes a transcript. Implementations must be safe to call
// repeatedly; they keep no conversation state.
type Gateway interface {
	Complete(ctx context.Context, t transcript.Transcript, descs []tools.ToolDescriptor) (Response, error)
}

// Response holds the model's content in order: Text and ToolRequest segments.
type Response struct {
	Segments []transcript.Segment
}

// Split partitions the segments into concatenated text and tool requests.
func (r Response) Split() (string, []transcript.ToolRequest) {
	u := transcript.Turn{Role: transcript.RoleAssistant, Segments: r.Segments}
	return u.Text(), u.ToolRequests()
}

// GatewayError is a completion failure after the retry policy gave up, or a
// request that could not be sent at all (Attempts == 0).
type GatewayError struct {
	Attempts int
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("model call not sent: %v", e.Err)
	}
	return fmt.Sprintf("model call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
