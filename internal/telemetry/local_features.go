package telemetry

import (
	"context"

	"github.com/petasbytes/cybercog/internal/metrics"
)

// LocalFeatures records size features of a query text, never the text itself.
func (s *Sink) LocalFeatures(ctx context.Context, text string) {
	if s == nil {
		return
	}
	queryID, _ := QueryIDFromContext(ctx)
	f := metrics.CountFeatures(text)
	s.Emit("local_features", map[string]any{
		"query_id":         queryID,
		"features_version": "1",
		"query": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
