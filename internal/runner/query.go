package runner

import (
	"context"
	"errors"
	"time"

	"github.com/petasbytes/cybercog/internal/gateway"
	"github.com/petasbytes/cybercog/internal/invoker"
	"github.com/petasbytes/cybercog/internal/logging"
	"github.com/petasbytes/cybercog/internal/telemetry"
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/tools"
)

var ErrMissingAPIKey = errors.New("anthropic API key is required")

// QueryResult is the outcome of one query as the shell sees it. Transcript
// is the history to pass to the next query: extended on success, unchanged
// on failure.
type QueryResult struct {
	OK         bool
	Response   string
	Error      string
	Transcript transcript.Transcript
}

// Service builds a Runner per query around a gateway for the caller's key.
type Service struct {
	NewGateway func(apiKey string) gateway.Gateway
	Registry   *tools.Registry
	Invoker    *invoker.Invoker
	Options    Options
}

// RunQuery never returns an error value; failures are reported in the result.
func (s *Service) RunQuery(ctx context.Context, username, query, apiKey string, history transcript.Transcript) QueryResult {
	logger := logging.OrDiscard(s.Options.Logger)
	if apiKey == "" {
		logger.Error("query rejected", "user", username, "error", ErrMissingAPIKey)
		return QueryResult{Error: ErrMissingAPIKey.Error(), Transcript: history}
	}

	queryID := telemetry.NewQueryID()
	ctx = telemetry.WithQueryID(ctx, queryID)
	opts := s.Options
	opts.Logger = logger.With("query_id", queryID)
	opts.Telemetry.LocalFeatures(ctx, query)
	opts.Logger.Info("query", "user", username, "query_bytes", len(query))

	start := time.Now()
	r := New(s.NewGateway(apiKey), s.Registry, s.Invoker, opts)
	answer, t, err := r.Run(ctx, query, history)
	opts.Telemetry.Emit("query_done", map[string]any{
		"query_id":    queryID,
		"ok":          err == nil,
		"duration_ms": time.Since(start).Milliseconds(),
		"turns":       len(t),
	})
	if err != nil {
		opts.Logger.Error("query failed", "user", username, "error", err)
		return QueryResult{Error: err.Error(), Transcript: history}
	}
	return QueryResult{OK: true, Response: answer, Transcript: t}
}
