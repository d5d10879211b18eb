package windowing

import (
	"errors"

	"github.com/petasbytes/cybercog/internal/transcript"
)

// ErrNewestOverBudget means not even the most recent user-opened span of the
// transcript fits the budget.
var ErrNewestOverBudget = errors.New("windowing: newest group exceeds the history token budget")

// Stats summarizes the result of window preparation.
//
//   - Total: estimated tokens for included groups only.
//   - IncludedGroups: groups in the window; SkippedGroups: the rest.
//   - OverBudgetNewest: no window opening on a user turn fits Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the longest suffix of t that fits budget, made of
// whole groups and starting on a user turn, which the endpoint requires of
// the first message. It fails with ErrNewestOverBudget when no such suffix
// exists or budget <= 0 with a non-empty transcript.
func PrepareSendWindow(t transcript.Transcript, budget int, c TokenCounter) (transcript.Transcript, Stats, error) {
	if len(t) == 0 {
		return nil, Stats{Budget: budget}, nil
	}
	groups := GroupTurns(t)
	over := Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	if budget <= 0 {
		return nil, over, ErrNewestOverBudget
	}

	total, included := 0, 0
	best := -1 // group index of the earliest valid window start
	bestTotal, bestIncluded := 0, 0
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], t)
		if total+cost > budget {
			break
		}
		total += cost
		included++
		if t[groups[gi].Start].Role == transcript.RoleUser {
			best, bestTotal, bestIncluded = gi, total, included
		}
	}
	if best < 0 {
		return nil, over, ErrNewestOverBudget
	}
	return t[groups[best].Start:], Stats{
		Total:          bestTotal,
		Budget:         budget,
		IncludedGroups: bestIncluded,
		SkippedGroups:  len(groups) - bestIncluded,
	}, nil
}
