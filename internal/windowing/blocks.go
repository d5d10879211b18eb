// Package windowing trims conversation history to an input token budget
// without separating tool requests from their results.
package windowing

import "github.com/petasbytes/cybercog/internal/transcript"

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group is the span of turns [Start, End) in the transcript.
type Group struct {
	Kind  GroupKind
	Start int // inclusive
	End   int // exclusive
}

// GroupTurns splits t into atomic units. A pair is an assistant turn holding
// tool requests followed by the run of tool turns that answers exactly those
// requests. Everything else is a singleton.
func GroupTurns(t transcript.Transcript) []Group {
	groups := make([]Group, 0, len(t))
	for i := 0; i < len(t); {
		if end, ok := pairEnd(t, i); ok {
			groups = append(groups, Group{Kind: GroupPair, Start: i, End: end})
			i = end
			continue
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// pairEnd reports where the pair opened by t[i] ends, if t[i] opens one.
func pairEnd(t transcript.Transcript, i int) (int, bool) {
	if t[i].Role != transcript.RoleAssistant {
		return 0, false
	}
	want := map[string]bool{}
	for _, req := range t[i].ToolRequests() {
		want[req.ID] = true
	}
	if len(want) == 0 {
		return 0, false
	}

	seen := map[string]bool{}
	j := i + 1
	for ; j < len(t) && t[j].Role == transcript.RoleTool; j++ {
		for _, s := range t[j].Segments {
			res, ok := s.(transcript.ToolResult)
			if !ok || !want[res.RequestID] {
				return 0, false
			}
			seen[res.RequestID] = true
		}
	}
	if len(seen) != len(want) {
		return 0, false
	}
	return j, true
}
