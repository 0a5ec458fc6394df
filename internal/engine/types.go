// Package engine orchestrates the additive/reductive refinement loop: phase
// sequencing, prompt rendering, LLM calls, structural validation and the
// one-shot repair pass. State values are never mutated in place; every
// transformation returns a new ProjectState with a copied history slice.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Phase names. Phases alternate strictly: additive, reductive, additive, …
const (
	PhaseAdditive  = "additive"
	PhaseReductive = "reductive"
)

// EventType tags a history record.
type EventType string

const (
	EventPhaseStep       EventType = "phase_step"
	EventPromptArchitect EventType = "prompt_architect"
	EventRepair          EventType = "repair"
	EventRestore         EventType = "restore"
)

// Domain errors, surfaced verbatim and never retried.
var (
	ErrTooFewIterations = errors.New("iterations must be >= 1")
	ErrEmptyTemplate    = errors.New("prompt template is empty")
	ErrUnknownPhase     = errors.New("unsupported phase name")
	ErrRecordIndex      = errors.New("history record index is out of range")
)

// SchemaVersion is the only project document version this engine understands.
const SchemaVersion = 1

// IterationRecord is one entry in the append-only history log. Non-phase
// events (prompt_architect, repair, restore) carry zero phase fields and are
// excluded from phase-step counting.
type IterationRecord struct {
	EventType      EventType `json:"event_type"`
	IterationIndex int       `json:"iteration_index"`
	PairIndex      int       `json:"pair_index"`
	PhaseStepIndex int       `json:"phase_step_index"`
	PhaseName      string    `json:"phase_name"`
	ModelUsed      string    `json:"model_used"`
	PromptRendered string    `json:"prompt_rendered"`
	OutputSnapshot string    `json:"output_snapshot"`
	NoteSummary    string    `json:"note_summary"`
	ChangeSummary  string    `json:"change_summary"`
	CreatedAt      string    `json:"created_at"`
}

// ProjectState is the unit of work the engine transforms. It mirrors the
// schema-version-1 project document field for field.
type ProjectState struct {
	SchemaVersion           int               `json:"schema_version"`
	ProjectTitle            string            `json:"project_title"`
	Outcome                 string            `json:"outcome"`
	RequirementsConstraints string            `json:"requirements_constraints"`
	SpecialResources        string            `json:"special_resources"`
	Iterations              int               `json:"iterations"`
	OutputFormat            string            `json:"output_format"`
	AdditiveModelTier       string            `json:"additive_phase_model_tier"`
	ReductiveModelTier      string            `json:"reductive_phase_model_tier"`
	AdditiveAllowedChanges  string            `json:"additive_phase_allowed_changes"`
	ReductiveAllowedChanges string            `json:"reductive_phase_allowed_changes"`
	AdditiveTemplate        string            `json:"additive_prompt_template"`
	ReductiveTemplate       string            `json:"reductive_prompt_template"`
	CurrentOutput           string            `json:"current_output"`
	History                 []IterationRecord `json:"history"`
}

// NewProjectState returns a state with documented defaults applied.
func NewProjectState() ProjectState {
	return ProjectState{
		SchemaVersion:      SchemaVersion,
		Iterations:         1,
		OutputFormat:       "Markdown",
		AdditiveModelTier:  "budget",
		ReductiveModelTier: "budget",
	}
}

// Clone returns a copy with an independent history slice, so the previous
// snapshot stays valid after further steps.
func (s ProjectState) Clone() ProjectState {
	out := s
	out.History = make([]IterationRecord, len(s.History))
	copy(out.History, s.History)
	return out
}

// PhaseStepRecords returns the additive/reductive phase-step records in
// stored order, skipping every other event type.
func (s ProjectState) PhaseStepRecords() []IterationRecord {
	var steps []IterationRecord
	for _, record := range s.History {
		if record.EventType == EventPhaseStep &&
			(record.PhaseName == PhaseAdditive || record.PhaseName == PhaseReductive) {
			steps = append(steps, record)
		}
	}
	return steps
}

// templateForPhase selects the stored template for a phase; a blank template
// is a domain error because the phase cannot run without one.
func (s ProjectState) templateForPhase(phase string) (string, error) {
	var text string
	switch phase {
	case PhaseAdditive:
		text = s.AdditiveTemplate
	case PhaseReductive:
		text = s.ReductiveTemplate
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s %w", phase, ErrEmptyTemplate)
	}
	return text, nil
}

// tierForPhase returns the state's configured tier string for a phase.
func (s ProjectState) tierForPhase(phase string) string {
	if phase == PhaseReductive {
		return s.ReductiveModelTier
	}
	return s.AdditiveModelTier
}
