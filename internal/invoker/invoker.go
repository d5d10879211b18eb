// Package invoker executes registered tools and turns every outcome,
// including failures and panics, into a result payload string.
package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/petasbytes/cybercog/internal/logging"
	"github.com/petasbytes/cybercog/internal/telemetry"
	"github.com/petasbytes/cybercog/tools"
)

const defaultBlockingWorkers = 4

type Options struct {
	// BlockingWorkers bounds how many blocking handlers run at once.
	BlockingWorkers int
	Logger          *log.Logger
	Telemetry       *telemetry.Sink
}

// InvocationError is a handler failure. It never leaves the invoker; Invoke
// renders it as an error payload.
type InvocationError struct {
	Tool string
	Err  error
}

func (e *InvocationError) Error() string { return e.Err.Error() }
func (e *InvocationError) Unwrap() error { return e.Err }

type Invoker struct {
	reg    *tools.Registry
	pool   *semaphore.Weighted
	logger *log.Logger
	sink   *telemetry.Sink
}

func New(reg *tools.Registry, opts Options) *Invoker {
	workers := opts.BlockingWorkers
	if workers < 1 {
		workers = defaultBlockingWorkers
	}
	return &Invoker{
		reg:    reg,
		pool:   semaphore.NewWeighted(int64(workers)),
		logger: logging.OrDiscard(opts.Logger),
		sink:   opts.Telemetry,
	}
}

// Invoke runs the named tool with a JSON object of arguments and returns its
// result payload. It never fails: unknown tools, handler errors, panics and
// unusable results all come back as {"error": ...} payloads.
func (inv *Invoker) Invoke(ctx context.Context, name string, args json.RawMessage) string {
	start := time.Now()
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	def, ok := inv.reg.Lookup(name)
	if !ok {
		msg := name + " not found in registry"
		inv.logger.Error("tool not found", "tool", name)
		inv.emit(ctx, name, start, len(args), 0, true)
		return ErrorPayload(msg)
	}

	inv.logger.Debug("invoking tool", "tool", name, "mode", def.Mode, "arg_bytes", len(args))
	payload, err := inv.execute(ctx, def, args)
	if err != nil {
		inv.logger.Error("tool failed", "tool", name, "args", string(args), "error", err)
		inv.emit(ctx, name, start, len(args), 0, true)
		return ErrorPayload(err.Error())
	}
	inv.emit(ctx, name, start, len(args), len(payload), false)
	return payload
}

func (inv *Invoker) execute(ctx context.Context, def tools.ToolDefinition, args json.RawMessage) (string, error) {
	var (
		v   any
		err error
	)
	if def.Mode == tools.NonBlocking {
		v, err = call(ctx, def, args)
	} else {
		v, err = inv.offload(ctx, def, args)
	}
	if err != nil {
		return "", err
	}
	return normalize(def, v)
}

type outcome struct {
	v   any
	err error
}

// offload runs a blocking handler on a pool slot. The caller stops waiting
// when ctx is done; the handler goroutine is left to finish on its own.
func (inv *Invoker) offload(ctx context.Context, def tools.ToolDefinition, args json.RawMessage) (any, error) {
	if err := inv.pool.Acquire(ctx, 1); err != nil {
		return nil, &InvocationError{Tool: def.Name, Err: fmt.Errorf("waiting for worker: %w", err)}
	}
	done := make(chan outcome, 1)
	go func() {
		defer inv.pool.Release(1)
		v, err := call(ctx, def, args)
		done <- outcome{v: v, err: err}
	}()
	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		return nil, &InvocationError{Tool: def.Name, Err: ctx.Err()}
	}
}

// call runs the handler, converting a panic into an InvocationError.
func call(ctx context.Context, def tools.ToolDefinition, args json.RawMessage) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &InvocationError{Tool: def.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err = def.Function(ctx, args)
	if err != nil {
		return nil, &InvocationError{Tool: def.Name, Err: err}
	}
	return v, nil
}

func normalize(def tools.ToolDefinition, v any) (string, error) {
	if def.Result == tools.StringResult {
		s, ok := v.(string)
		if !ok {
			return "", &InvocationError{Tool: def.Name, Err: fmt.Errorf("handler returned %T, want string", v)}
		}
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", &InvocationError{Tool: def.Name, Err: fmt.Errorf("encode result: %w", err)}
	}
	return string(b), nil
}

func (inv *Invoker) emit(ctx context.Context, name string, start time.Time, inSize, outSize int, failed bool) {
	queryID, _ := telemetry.QueryIDFromContext(ctx)
	inv.sink.Emit("tool_exec", map[string]any{
		"query_id":    queryID,
		"tool_name":   name,
		"duration_ms": time.Since(start).Milliseconds(),
		"input_size":  inSize,
		"output_size": outSize,
		"error":       failed,
	})
}
