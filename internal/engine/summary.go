package engine

import (
	"context"
	"fmt"
	"strings"

	"promptforge/internal/llm"
)

const noPreviousOutputMarker = "(no previous output available)"

// GenerateChangeSummary fills the change_summary of one history record with
// a budget-tier description of how its snapshot differs from the previous
// record's snapshot. The snapshot itself is never touched, and the input
// state is returned unchanged on failure.
func (e *Engine) GenerateChangeSummary(ctx context.Context, state ProjectState, recordIndex int) (ProjectState, error) {
	if recordIndex < 0 || recordIndex >= len(state.History) {
		return state, fmt.Errorf("%w: %d", ErrRecordIndex, recordIndex)
	}

	previous := noPreviousOutputMarker
	if recordIndex > 0 {
		previous = state.History[recordIndex-1].OutputSnapshot
	}
	current := state.History[recordIndex].OutputSnapshot

	prompt := strings.Join([]string{
		"Summarize how the current output differs from the previous output.",
		"Respond with one short paragraph followed by up to three bullet points.",
		"",
		"Previous output:",
		previous,
		"",
		"Current output:",
		current,
	}, "\n")

	resp, err := e.llm.GenerateText(ctx, llm.Request{
		Tier:     llm.TierBudget,
		UserText: prompt,
	})
	if err != nil {
		return state, err
	}

	next := state.Clone()
	next.History[recordIndex].ChangeSummary = resp.Text
	return next, nil
}
