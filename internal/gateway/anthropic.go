package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"

	"github.com/petasbytes/cybercog/internal/logging"
	"github.com/petasbytes/cybercog/internal/telemetry"
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/internal/windowing"
	"github.com/petasbytes/cybercog/tools"
)

type Options struct {
	Model     string
	MaxTokens int64
	Retry     RetryPolicy
	// HistoryTokenBudget > 0 trims old history before each send.
	HistoryTokenBudget int
	HTTPClient         *http.Client
	BaseURL            string
	Logger             *log.Logger
	Telemetry          *telemetry.Sink
}

// Anthropic talks to the Messages API.
type Anthropic struct {
	client anthropic.Client
	opts   Options
	logger *log.Logger
}

// NewAnthropic builds a gateway for apiKey. The SDK's own retries are off;
// opts.Retry is the only retry layer.
func NewAnthropic(apiKey string, opts Options) *Anthropic {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	opts.Retry = opts.Retry.withDefaults()
	return &Anthropic{
		client: anthropic.NewClient(clientOptions(apiKey, opts)...),
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
	}
}

func clientOptions(apiKey string, opts Options) []option.RequestOption {
	ro := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		ro = append(ro, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.BaseURL != "" {
		ro = append(ro, option.WithBaseURL(opts.BaseURL))
	}
	return ro
}

func (a *Anthropic) Complete(ctx context.Context, t transcript.Transcript, descs []tools.ToolDescriptor) (Response, error) {
	if a.opts.HistoryTokenBudget > 0 {
		window, stats, err := windowing.PrepareSendWindow(t, a.opts.HistoryTokenBudget, windowing.HeuristicCounter{})
		a.logger.Debug("history window",
			"budget", stats.Budget, "estimated", stats.Total,
			"included_groups", stats.IncludedGroups, "skipped_groups", stats.SkippedGroups)
		if err != nil {
			return Response{}, &GatewayError{Err: err}
		}
		t = window
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: a.opts.MaxTokens,
		Messages:  toMessages(t),
		System:    []anthropic.TextBlockParam{{Text: SystemInstruction}},
		Tools:     toTools(descs),
	}

	start := time.Now()
	var msg *anthropic.Message
	attempts, err := a.opts.Retry.run(ctx, a.logger, func() error {
		m, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})

	fields := map[string]any{
		"model":       a.opts.Model,
		"attempts":    attempts,
		"duration_ms": time.Since(start).Milliseconds(),
		"messages":    len(params.Messages),
		"tools":       len(params.Tools),
		"error":       err != nil,
	}
	if id, ok := telemetry.QueryIDFromContext(ctx); ok {
		fields["query_id"] = id
	}
	if err != nil {
		a.opts.Telemetry.Emit("model_call", fields)
		a.logger.Error("model call failed", "attempts", attempts, "error", err)
		return Response{}, &GatewayError{Attempts: attempts, Err: err}
	}

	resp := fromMessage(msg)
	text, reqs := resp.Split()
	fields["input_tokens"] = msg.Usage.InputTokens
	fields["output_tokens"] = msg.Usage.OutputTokens
	fields["stop_reason"] = string(msg.StopReason)
	fields["tool_requests"] = len(reqs)
	a.opts.Telemetry.Emit("model_call", fields)
	a.logger.Info("model response", "tool_calls", len(reqs), "text_len", len(text), "stop_reason", msg.StopReason)
	return resp, nil
}
