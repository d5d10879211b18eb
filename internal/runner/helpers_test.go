package runner_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/petasbytes/cybercog/internal/gateway"
	"github.com/petasbytes/cybercog/internal/invoker"
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/tools"
)

// scripted replays responses in order, repeating the last one, and records
// the transcript and tool count it was called with.
type scripted struct {
	mu        sync.Mutex
	replies   []reply
	seen      []transcript.Transcript
	toolCount []int
}

type reply struct {
	resp gateway.Response
	err  error
}

func (s *scripted) Complete(ctx context.Context, t transcript.Transcript, descs []tools.ToolDescriptor) (gateway.Response, error) {
	if err := ctx.Err(); err != nil {
		return gateway.Response{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, t.Clone())
	s.toolCount = append(s.toolCount, len(descs))
	r := s.replies[min(len(s.seen)-1, len(s.replies)-1)]
	return r.resp, r.err
}

func (s *scripted) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func text(s string) reply {
	return reply{resp: gateway.Response{Segments: []transcript.Segment{transcript.Text{Content: s}}}}
}

// toolsReply asks for the named tools with ids derived from prefix.
func toolsReply(prefix, txt string, names ...string) reply {
	var segs []transcript.Segment
	if txt != "" {
		segs = append(segs, transcript.Text{Content: txt})
	}
	for i, n := range names {
		segs = append(segs, transcript.ToolRequest{ID: fmt.Sprintf("%s-%d", prefix, i), Name: n, Arguments: []byte(`{}`)})
	}
	return reply{resp: gateway.Response{Segments: segs}}
}

// counting registers handlers that return their own name and counts calls.
type counting struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counting) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func setup(t *testing.T, defs ...tools.ToolDefinition) (*tools.Registry, *invoker.Invoker, *counting) {
	t.Helper()
	c := &counting{calls: map[string]int{}}
	reg := tools.NewRegistry()
	for _, d := range defs {
		inner := d.Function
		name := d.Name
		d.Function = func(ctx context.Context, in json.RawMessage) (any, error) {
			c.mu.Lock()
			c.calls[name]++
			c.mu.Unlock()
			return inner(ctx, in)
		}
		if _, err := reg.Register(d); err != nil {
			t.Fatalf("register %s: %v", d.Name, err)
		}
	}
	return reg, invoker.New(reg, invoker.Options{BlockingWorkers: 4}), c
}

func returns(v string) tools.HandlerFunc {
	return func(context.Context, json.RawMessage) (any, error) { return v, nil }
}
