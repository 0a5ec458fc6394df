package engine

import (
	"fmt"
	"strings"
)

// FormatHistoryLabel builds the compact one-line label shown for a history
// record. Phase steps read "Additive phase - step 3"; other event types get
// a fixed event description so they are visually distinct from steps.
func FormatHistoryLabel(record IterationRecord) string {
	switch record.EventType {
	case EventPhaseStep:
		phase := record.PhaseName
		if phase == "" {
			phase = "unknown"
		}
		return fmt.Sprintf("%s phase - step %d", titleCase(phase), record.PhaseStepIndex)
	case EventPromptArchitect:
		return "prompt_architect event - templates generated"
	case EventRepair:
		return "repair event - structural validation retry"
	case EventRestore:
		return "restore event - snapshot restored"
	}
	return fmt.Sprintf("%s event", string(record.EventType))
}

// FormatHistoryHeader renders the expanded metadata line for a record.
func FormatHistoryHeader(record IterationRecord) string {
	phase := strings.TrimSpace(record.PhaseName)
	if phase == "" {
		phase = strings.ReplaceAll(string(record.EventType), "_", " ")
		if phase == "" {
			phase = "unknown"
		}
	}
	return fmt.Sprintf("phase=%s | iteration=%s | step=%s | ts=%s | model=%s",
		phase,
		displayIndex(record.IterationIndex),
		displayIndex(record.PhaseStepIndex),
		displayOrDash(record.CreatedAt),
		displayOrDash(record.ModelUsed))
}

func displayIndex(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func displayOrDash(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "-"
	}
	return v
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
