package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/cybercog/internal/transcript"
)

// TokenCounter estimates input-token cost for turns or groups.
type TokenCounter interface {
	CountTurn(u transcript.Turn) int
	CountGroup(g Group, all transcript.Transcript) int
}

// HeuristicCounter is a deterministic estimator: rune counts of text, tool
// result payloads and tool request names plus arguments, each with a fixed
// per-segment overhead.
type HeuristicCounter struct{}

// Per-segment overhead; the counter tests pin it.
const segmentOverhead = 4

func (HeuristicCounter) CountTurn(u transcript.Turn) int {
	total := 0
	for _, s := range u.Segments {
		switch v := s.(type) {
		case transcript.Text:
			total += utf8.RuneCountInString(v.Content)
		case transcript.ToolResult:
			total += utf8.RuneCountInString(v.Payload)
		case transcript.ToolRequest:
			total += utf8.RuneCountInString(v.Name) + utf8.RuneCount(v.Arguments)
		}
		total += segmentOverhead
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all transcript.Transcript) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountTurn(all[i])
	}
	return total
}
