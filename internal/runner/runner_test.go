package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/cybercog/internal/gateway"
	"github.com/petasbytes/cybercog/internal/invoker"
	"github.com/petasbytes/cybercog/internal/runner"
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/tools"
)

func TestRun_DirectAnswerInvokesNoTools(t *testing.T) {
	reg, inv, c := setup(t, tools.ToolDefinition{Name: "A", Function: returns("a")})
	gw := &scripted{replies: []reply{text("  the answer \n")}}

	answer, tr, err := runner.New(gw, reg, inv, runner.Options{}).Run(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("answer: %q", answer)
	}
	if c.total() != 0 || gw.calls() != 1 {
		t.Fatalf("tools=%d model calls=%d", c.total(), gw.calls())
	}
	if len(tr) != 2 || tr[0].Text() != "question" || tr[1].Role != transcript.RoleAssistant || tr[1].Text() != "the answer" {
		t.Fatalf("transcript: %+v", tr)
	}
	if gw.toolCount[0] != 1 {
		t.Fatalf("expected the tool list on every call, got %d", gw.toolCount[0])
	}
}

func TestRun_ToolResultsFollowRequestOrder(t *testing.T) {
	slow := func(context.Context, json.RawMessage) (any, error) {
		time.Sleep(50 * time.Millisecond)
		return "from A", nil
	}
	reg, inv, _ := setup(t,
		tools.ToolDefinition{Name: "A", Function: slow},
		tools.ToolDefinition{Name: "B", Function: returns("from B")},
	)
	gw := &scripted{replies: []reply{toolsReply("r", "thinking", "A", "B"), text("done")}}

	var announced []string
	opts := runner.Options{OnToolCall: func(name string) { announced = append(announced, name) }}
	answer, tr, err := runner.New(gw, reg, inv, opts).Run(context.Background(), "q", nil)
	if err != nil || answer != "done" {
		t.Fatalf("answer=%q err=%v", answer, err)
	}
	if strings.Join(announced, ",") != "A,B" {
		t.Fatalf("announced: %v", announced)
	}

	// user, assistant(text, A, B), tool(A), tool(B), assistant(done)
	if len(tr) != 5 {
		t.Fatalf("expected 5 turns, got %d: %+v", len(tr), tr)
	}
	asst := tr[1]
	if asst.Text() != "thinking" || len(asst.ToolRequests()) != 2 {
		t.Fatalf("assistant turn: %+v", asst)
	}
	first, second := tr[2].Segments[0].(transcript.ToolResult), tr[3].Segments[0].(transcript.ToolResult)
	if first.RequestID != "r-0" || first.Payload != "from A" || second.RequestID != "r-1" || second.Payload != "from B" {
		t.Fatalf("tool turns out of order: %+v %+v", first, second)
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("invalid transcript: %v", err)
	}

	// The second model call saw the whole exchange.
	if len(gw.seen[1]) != 4 {
		t.Fatalf("second call got %d turns", len(gw.seen[1]))
	}
}

func TestRun_CallBudgetForcesFinalCall(t *testing.T) {
	reg, inv, c := setup(t,
		tools.ToolDefinition{Name: "A", Function: returns("a")},
		tools.ToolDefinition{Name: "B", Function: returns("b")},
	)
	// Always two tool requests; the final reply also asks for tools.
	gw := &scripted{replies: []reply{
		toolsReply("i1", "", "A", "B"),
		toolsReply("i2", "", "A", "B"),
		toolsReply("i3", "", "A", "B"),
		toolsReply("final", "wrapping up", "A"),
	}}

	answer, tr, err := runner.New(gw, reg, inv, runner.Options{MaxCalls: 6}).Run(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if answer != "wrapping up" {
		t.Fatalf("answer: %q", answer)
	}
	if gw.calls() != 4 {
		t.Fatalf("expected 3 tool iterations plus 1 final call, got %d calls", gw.calls())
	}
	if c.total() != 6 {
		t.Fatalf("expected 6 tool invocations, got %d", c.total())
	}
	if gw.toolCount[3] != 2 {
		t.Fatalf("final call should keep tools attached, got %d", gw.toolCount[3])
	}
	last := tr[len(tr)-1]
	if last.Role != transcript.RoleAssistant || len(last.ToolRequests()) != 0 || last.Text() != "wrapping up" {
		t.Fatalf("final turn: %+v", last)
	}
	// 1 user + 3 * (assistant + 2 tool) + final assistant
	if len(tr) != 11 {
		t.Fatalf("expected 11 turns, got %d", len(tr))
	}
}

func TestRun_BudgetCountsToolCallsNotIterations(t *testing.T) {
	reg, inv, c := setup(t, tools.ToolDefinition{Name: "A", Function: returns("a")})
	// Three requests in one turn overshoot a budget of 2.
	gw := &scripted{replies: []reply{toolsReply("x", "", "A", "A", "A"), text("final")}}

	answer, _, err := runner.New(gw, reg, inv, runner.Options{MaxCalls: 2}).Run(context.Background(), "q", nil)
	if err != nil || answer != "final" {
		t.Fatalf("answer=%q err=%v", answer, err)
	}
	if gw.calls() != 2 || c.total() != 3 {
		t.Fatalf("model calls=%d tool calls=%d", gw.calls(), c.total())
	}
}

func TestRun_EmptyAnswer(t *testing.T) {
	reg, inv, _ := setup(t)
	gw := &scripted{replies: []reply{text("   ")}}
	_, _, err := runner.New(gw, reg, inv, runner.Options{}).Run(context.Background(), "q", nil)
	if !errors.Is(err, runner.ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
}

func TestRun_NoFinalResponse(t *testing.T) {
	reg, inv, _ := setup(t, tools.ToolDefinition{Name: "A", Function: returns("a")})
	gw := &scripted{replies: []reply{toolsReply("x", "", "A")}}
	_, _, err := runner.New(gw, reg, inv, runner.Options{MaxCalls: 1}).Run(context.Background(), "q", nil)
	if !errors.Is(err, runner.ErrNoFinalResponse) {
		t.Fatalf("expected ErrNoFinalResponse, got %v", err)
	}
	if gw.calls() != 2 {
		t.Fatalf("expected 2 model calls, got %d", gw.calls())
	}
}

func TestRun_ToolFailureIsFedBack(t *testing.T) {
	failing := func(context.Context, json.RawMessage) (any, error) { return nil, errors.New("disk on fire") }
	reg, inv, _ := setup(t, tools.ToolDefinition{Name: "A", Function: failing})
	gw := &scripted{replies: []reply{toolsReply("x", "", "A", "missing"), text("recovered")}}

	answer, tr, err := runner.New(gw, reg, inv, runner.Options{}).Run(context.Background(), "q", nil)
	if err != nil || answer != "recovered" {
		t.Fatalf("answer=%q err=%v", answer, err)
	}
	a := tr[2].Segments[0].(transcript.ToolResult).Payload
	b := tr[3].Segments[0].(transcript.ToolResult).Payload
	if a != `{"error":"disk on fire"}` || b != `{"error":"missing not found in registry"}` {
		t.Fatalf("payloads: %s %s", a, b)
	}
	if !invoker.IsErrorPayload(a) {
		t.Fatalf("expected error payload: %s", a)
	}
}

func TestRun_GatewayErrorKeepsHistory(t *testing.T) {
	reg, inv, _ := setup(t, tools.ToolDefinition{Name: "A", Function: returns("a")})
	boom := &gateway.GatewayError{Attempts: 3, Err: errors.New("503")}
	gw := &scripted{replies: []reply{toolsReply("x", "", "A"), {err: boom}}}

	history := transcript.Transcript{transcript.UserTurn("old"), transcript.AssistantText("old answer")}
	_, got, err := runner.New(gw, reg, inv, runner.Options{}).Run(context.Background(), "q", history)
	var gwErr *gateway.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if len(got) != 2 || got[1].Text() != "old answer" {
		t.Fatalf("expected prior history back, got %+v", got)
	}
}

func TestRun_DoesNotMutateHistory(t *testing.T) {
	reg, inv, _ := setup(t)
	gw := &scripted{replies: []reply{text("hi")}}

	history := make(transcript.Transcript, 1, 8)
	history[0] = transcript.UserTurn("old")
	_, tr, err := runner.New(gw, reg, inv, runner.Options{}).Run(context.Background(), "new", history)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if spare := history[:2]; spare[1].Role != "" {
		t.Fatalf("history backing array was written: %+v", spare[1])
	}
	if len(tr) != 3 || tr[0].Text() != "old" || tr[1].Text() != "new" {
		t.Fatalf("transcript: %+v", tr)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	reg, inv, _ := setup(t)
	gw := &scripted{replies: []reply{text("never")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := runner.New(gw, reg, inv, runner.Options{}).Run(ctx, "q", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
