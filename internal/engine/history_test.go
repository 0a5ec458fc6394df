package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHistoryLabelPhaseSteps(t *testing.T) {
	record := IterationRecord{
		EventType:      EventPhaseStep,
		PairIndex:      1,
		IterationIndex: 1,
		PhaseStepIndex: 2,
		PhaseName:      PhaseReductive,
	}
	assert.Equal(t, "Reductive phase - step 2", FormatHistoryLabel(record))

	record.PhaseName = PhaseAdditive
	record.PhaseStepIndex = 1
	assert.Equal(t, "Additive phase - step 1", FormatHistoryLabel(record))
}

func TestFormatHistoryLabelEvents(t *testing.T) {
	assert.Equal(t, "prompt_architect event - templates generated",
		FormatHistoryLabel(IterationRecord{EventType: EventPromptArchitect}))
	assert.Equal(t, "repair event - structural validation retry",
		FormatHistoryLabel(IterationRecord{EventType: EventRepair}))
	assert.Equal(t, "restore event - snapshot restored",
		FormatHistoryLabel(IterationRecord{EventType: EventRestore}))
}

func TestFormatHistoryHeader(t *testing.T) {
	record := IterationRecord{
		EventType:      EventPhaseStep,
		IterationIndex: 1,
		PhaseStepIndex: 2,
		PhaseName:      PhaseReductive,
		ModelUsed:      "gpt-5-mini",
		CreatedAt:      "2026-01-02T03:04:05Z",
	}
	assert.Equal(t,
		"phase=reductive | iteration=1 | step=2 | ts=2026-01-02T03:04:05Z | model=gpt-5-mini",
		FormatHistoryHeader(record))
}

func TestFormatHistoryHeaderNonPhaseEventUsesDashes(t *testing.T) {
	record := IterationRecord{EventType: EventPromptArchitect, ModelUsed: "gpt-5"}
	assert.Equal(t,
		"phase=prompt architect | iteration=- | step=- | ts=- | model=gpt-5",
		FormatHistoryHeader(record))
}
