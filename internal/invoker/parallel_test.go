package invoker_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/cybercog/internal/invoker"
	"github.com/petasbytes/cybercog/tools"
)

func TestParallel_PreservesInputOrder(t *testing.T) {
	var (
		mu       sync.Mutex
		finished []string
	)
	record := func(name string, delay time.Duration) tools.HandlerFunc {
		return func(context.Context, json.RawMessage) (any, error) {
			time.Sleep(delay)
			mu.Lock()
			finished = append(finished, name)
			mu.Unlock()
			return "result-" + name, nil
		}
	}
	inv, _ := newInvoker(t,
		tools.ToolDefinition{Name: "A", Function: record("A", 60*time.Millisecond)},
		tools.ToolDefinition{Name: "B", Function: record("B", 0)},
	)

	args := json.RawMessage(`{"tool_uses":[{"toolName":"A","parameters":{}},{"toolName":"B","parameters":{}}]}`)
	got := inv.Invoke(context.Background(), invoker.ParallelToolName, args)

	var results []string
	if err := json.Unmarshal([]byte(got), &results); err != nil {
		t.Fatalf("result is not a JSON array of strings: %s (%v)", got, err)
	}
	if len(results) != 2 || results[0] != "result-A" || results[1] != "result-B" {
		t.Fatalf("got %v", results)
	}
	if len(finished) != 2 || finished[0] != "B" {
		t.Fatalf("expected B to finish first, got %v", finished)
	}
}

func TestParallel_EntryFailuresAreIsolated(t *testing.T) {
	inv, _ := newInvoker(t, tools.ToolDefinition{Name: "echo", Function: func(_ context.Context, in json.RawMessage) (any, error) {
		return gjson.GetBytes(in, "v").String(), nil
	}})

	args := json.RawMessage(`{"tool_uses":[
		{"recipient_name":"echo","parameters":{"v":"one"}},
		{"recipient_name":"missing"},
		{"parameters":{}},
		{"tool_name":"echo"}
	]}`)
	got := inv.Invoke(context.Background(), invoker.ParallelToolName, args)

	var results []string
	if err := json.Unmarshal([]byte(got), &results); err != nil {
		t.Fatalf("decode: %v (%s)", err, got)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results: %v", len(results), results)
	}
	if results[0] != "one" || results[3] != "" {
		t.Fatalf("unexpected successes: %v", results)
	}
	if results[1] != `{"error":"missing not found in registry"}` || !invoker.IsErrorPayload(results[2]) {
		t.Fatalf("unexpected failures: %v", results)
	}
}

func TestParallel_RejectsNonArray(t *testing.T) {
	inv, _ := newInvoker(t)
	got := inv.Invoke(context.Background(), invoker.ParallelToolName, json.RawMessage(`{"tool_uses":"x"}`))
	if got != `{"error":"tool_uses must be an array"}` {
		t.Fatalf("got %s", got)
	}
}

func TestParallel_Descriptor(t *testing.T) {
	_, reg := newInvoker(t)
	var found bool
	for _, d := range reg.Descriptors() {
		if d.Name != invoker.ParallelToolName {
			continue
		}
		found = true
		if len(d.Parameters) != 1 || d.Parameters[0].Name != "tool_uses" || d.Parameters[0].Type != "array" || !d.Parameters[0].Required {
			t.Fatalf("unexpected parameters: %+v", d.Parameters)
		}
	}
	if !found {
		t.Fatal("parallel tool not registered")
	}
}
