package runner

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/petasbytes/cybercog/internal/gateway"
	"github.com/petasbytes/cybercog/internal/invoker"
	"github.com/petasbytes/cybercog/internal/logging"
	"github.com/petasbytes/cybercog/internal/metrics"
	"github.com/petasbytes/cybercog/internal/telemetry"
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/tools"
)

const DefaultMaxCalls = 6

var (
	// ErrEmptyAnswer: a model turn had neither tool requests nor text.
	ErrEmptyAnswer = errors.New("no content produced")
	// ErrNoFinalResponse: the forced final call produced no text.
	ErrNoFinalResponse = errors.New("no text content in final response")
)

type Options struct {
	// MaxCalls bounds tool invocations per query before the final call.
	MaxCalls int
	Logger   *log.Logger
	// OnToolCall, if set, is called once per dispatched tool, in request order.
	OnToolCall func(name string)
	Telemetry  *telemetry.Sink
}

type Runner struct {
	gw     gateway.Gateway
	reg    *tools.Registry
	inv    *invoker.Invoker
	opts   Options
	logger *log.Logger
}

func New(gw gateway.Gateway, reg *tools.Registry, inv *invoker.Invoker, opts Options) *Runner {
	if opts.MaxCalls < 1 {
		opts.MaxCalls = DefaultMaxCalls
	}
	return &Runner{gw: gw, reg: reg, inv: inv, opts: opts, logger: logging.OrDiscard(opts.Logger)}
}

// Run answers query given prior history. On success the returned transcript
// is history plus this query's turns, ending with the answer as an assistant
// turn. On failure it returns history itself.
func (r *Runner) Run(ctx context.Context, query string, history transcript.Transcript) (string, transcript.Transcript, error) {
	t := append(history.Clone(), transcript.UserTurn(query))
	st := metrics.Summarize(history)
	r.logger.Info("query start", "history_turns", st.Turns, "history_chars", st.Chars)

	descs := r.reg.Descriptors()
	calls := 0
	for calls < r.opts.MaxCalls {
		resp, err := r.gw.Complete(ctx, t, descs)
		if err != nil {
			return "", history, err
		}
		text, reqs := resp.Split()
		text = strings.TrimSpace(text)
		r.logger.Info("model turn", "tool_calls", len(reqs), "text_len", len(text), "calls_so_far", calls)

		if len(reqs) == 0 {
			if text == "" {
				return "", history, ErrEmptyAnswer
			}
			return text, append(t, transcript.AssistantText(text)), nil
		}

		results := r.dispatch(ctx, reqs)
		if err := ctx.Err(); err != nil {
			return "", history, err
		}
		t = append(t, assistantTurn(text, reqs))
		for i, req := range reqs {
			t = append(t, transcript.ToolTurn(req.ID, results[i]))
		}
		calls += len(reqs)
	}

	r.logger.Info("tool call budget reached, requesting final answer", "calls", calls, "max_calls", r.opts.MaxCalls)
	resp, err := r.gw.Complete(ctx, t, descs)
	if err != nil {
		return "", history, err
	}
	text, reqs := resp.Split()
	if len(reqs) > 0 {
		r.logger.Warn("final call requested tools; ignored", "tool_calls", len(reqs))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", history, ErrNoFinalResponse
	}
	return text, append(t, transcript.AssistantText(text)), nil
}

// dispatch invokes every request concurrently; results[i] belongs to reqs[i].
func (r *Runner) dispatch(ctx context.Context, reqs []transcript.ToolRequest) []string {
	results := make([]string, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		if r.opts.OnToolCall != nil {
			r.opts.OnToolCall(req.Name)
		}
		g.Go(func() error {
			results[i] = r.inv.Invoke(ctx, req.Name, req.Arguments)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func assistantTurn(text string, reqs []transcript.ToolRequest) transcript.Turn {
	u := transcript.Turn{Role: transcript.RoleAssistant}
	if text != "" {
		u.Segments = append(u.Segments, transcript.Text{Content: text})
	}
	for _, req := range reqs {
		u.Segments = append(u.Segments, req)
	}
	return u
}
