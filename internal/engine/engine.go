package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"promptforge/internal/formats"
	"promptforge/internal/llm"
	"promptforge/internal/template"
	"promptforge/internal/validate"
)

const defaultTemperature = 0.2

// Config carries the engine's injected collaborators and sampling overrides.
type Config struct {
	// Per-phase temperature overrides; nil falls back to 0.2.
	AdditiveTemperature  *float64
	ReductiveTemperature *float64
	Logger               *zap.Logger
	// Now is swapped in tests for deterministic timestamps.
	Now func() time.Time
}

// Engine runs phase steps against a Generator. It is synchronous; callers
// must not interleave calls against the same ProjectState value.
type Engine struct {
	llm    llm.Generator
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New builds an Engine around an LLM generator.
func New(generator llm.Generator, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{llm: generator, cfg: cfg, logger: logger, now: now}
}

// RunOptions adjusts planning and execution.
type RunOptions struct {
	// IterationsOverride replaces the state's iteration count when non-nil.
	IterationsOverride *int
}

// StepOptions adjusts a single phase step.
type StepOptions struct {
	// TierOverride replaces the phase's configured tier when non-empty.
	TierOverride llm.Tier
}

// PlannedStep is one entry of a dry-run plan.
type PlannedStep struct {
	IterationIndex int
	PhaseStepIndex int
	PhaseName      string
}

// RunPlan is the normalized state plus its full ordered step sequence.
type RunPlan struct {
	State ProjectState
	Steps []PlannedStep
}

// RunResult reports what RunIterations actually executed.
type RunResult struct {
	State          ProjectState
	StepsCompleted int
	Cancelled      bool
}

// NormalizeIterations resolves the iteration count from state and options,
// failing fast on values below 1 rather than clamping.
func NormalizeIterations(state ProjectState, opts RunOptions) (int, error) {
	iterations := state.Iterations
	if opts.IterationsOverride != nil {
		iterations = *opts.IterationsOverride
	}
	if iterations < 1 {
		return 0, fmt.Errorf("%w (got %d)", ErrTooFewIterations, iterations)
	}
	return iterations, nil
}

// ApplyRunOptions returns a copy of state with normalized run options.
func ApplyRunOptions(state ProjectState, opts RunOptions) (ProjectState, error) {
	iterations, err := NormalizeIterations(state, opts)
	if err != nil {
		return ProjectState{}, err
	}
	next := state.Clone()
	next.Iterations = iterations
	return next, nil
}

// PlanSteps enumerates the full ordered phase-step sequence for the
// configured iteration count without executing anything. One iteration is
// two steps: additive then reductive.
func PlanSteps(state ProjectState, opts RunOptions) ([]PlannedStep, error) {
	iterations, err := NormalizeIterations(state, opts)
	if err != nil {
		return nil, err
	}
	steps := make([]PlannedStep, 0, iterations*2)
	stepIndex := 0
	for iteration := 1; iteration <= iterations; iteration++ {
		for _, phase := range []string{PhaseAdditive, PhaseReductive} {
			stepIndex++
			steps = append(steps, PlannedStep{
				IterationIndex: iteration,
				PhaseStepIndex: stepIndex,
				PhaseName:      phase,
			})
		}
	}
	return steps, nil
}

// BuildRunPlan pairs the normalized state with its planned steps.
func BuildRunPlan(state ProjectState, opts RunOptions) (RunPlan, error) {
	normalized, err := ApplyRunOptions(state, opts)
	if err != nil {
		return RunPlan{}, err
	}
	steps, err := PlanSteps(normalized, RunOptions{})
	if err != nil {
		return RunPlan{}, err
	}
	return RunPlan{State: normalized, Steps: steps}, nil
}

// NextStep computes the upcoming step purely from how many phase steps the
// history already holds. There is no terminal state.
func NextStep(state ProjectState) PlannedStep {
	index := len(state.PhaseStepRecords()) + 1
	phase := PhaseAdditive
	if index%2 == 0 {
		phase = PhaseReductive
	}
	return PlannedStep{
		IterationIndex: (index + 1) / 2,
		PhaseStepIndex: index,
		PhaseName:      phase,
	}
}

// RunNextStep executes one phase step: render, generate, validate, and at
// most one repair pass. On failure the input state is returned untouched so
// the caller keeps a consistent snapshot.
func (e *Engine) RunNextStep(ctx context.Context, state ProjectState, opts StepOptions) (ProjectState, error) {
	step := NextStep(state)
	templateText, err := state.templateForPhase(step.PhaseName)
	if err != nil {
		return state, err
	}

	rendered := template.Render(templateText, e.buildContext(state, step))
	if !mentionsFormat(rendered, state.OutputFormat) {
		rendered = formats.Guidance(state.OutputFormat) + "\n\n" + rendered
	}

	tier := llm.Tier(strings.ToLower(strings.TrimSpace(state.tierForPhase(step.PhaseName))))
	if opts.TierOverride != "" {
		tier = opts.TierOverride
	}
	if tier == "" {
		tier = llm.TierBudget
	}

	e.logger.Info("phase step start",
		zap.String("phase", step.PhaseName),
		zap.Int("iteration", step.IterationIndex),
		zap.Int("step", step.PhaseStepIndex),
		zap.String("tier", string(tier)))

	resp, err := e.llm.GenerateText(ctx, llm.Request{
		Tier:        tier,
		UserText:    rendered,
		Temperature: e.temperatureForPhase(step.PhaseName),
	})
	if err != nil {
		return state, err
	}

	result := validate.ForFormat(resp.Text, state.OutputFormat)
	stepRecord := IterationRecord{
		EventType:      EventPhaseStep,
		IterationIndex: step.IterationIndex,
		PairIndex:      step.IterationIndex,
		PhaseStepIndex: step.PhaseStepIndex,
		PhaseName:      step.PhaseName,
		ModelUsed:      resp.ModelUsed,
		PromptRendered: rendered,
		OutputSnapshot: resp.Text,
		CreatedAt:      e.timestamp(),
	}
	if result.Applicable {
		stepRecord.NoteSummary = result.Message
	}

	if !result.Applicable || result.OK {
		next := state.Clone()
		next.CurrentOutput = resp.Text
		next.History = append(next.History, stepRecord)
		return next, nil
	}

	// Structural validation failed: one repair attempt, never a repair of a
	// repair. A failed repair keeps the original invalid text as the working
	// output while the repair record documents the attempt.
	repairPrompt := buildRepairPrompt(state.OutputFormat, result.Message, resp.Text)
	repairResp, err := e.llm.GenerateText(ctx, llm.Request{
		Tier:        llm.TierBudget,
		UserText:    repairPrompt,
		Temperature: e.temperatureForPhase(step.PhaseName),
	})
	if err != nil {
		return state, err
	}

	repairResult := validate.ForFormat(repairResp.Text, state.OutputFormat)
	repairRecord := IterationRecord{
		EventType:      EventRepair,
		ModelUsed:      repairResp.ModelUsed,
		PromptRendered: repairPrompt,
		OutputSnapshot: repairResp.Text,
		CreatedAt:      e.timestamp(),
	}
	if repairResult.OK {
		repairRecord.NoteSummary = "Repair validation passed."
	} else {
		repairRecord.NoteSummary = "Repair failed: " + repairResult.Message
	}

	next := state.Clone()
	if repairResult.OK {
		next.CurrentOutput = repairResp.Text
	} else {
		next.CurrentOutput = resp.Text
	}
	next.History = append(next.History, stepRecord, repairRecord)

	e.logger.Info("repair pass finished",
		zap.Bool("repaired", repairResult.OK),
		zap.String("format", result.Format))
	return next, nil
}

// RunIterations runs up to iterations*2 phase steps, checking the stop
// predicate only at step boundaries; an in-flight step always completes.
func (e *Engine) RunIterations(ctx context.Context, state ProjectState, opts RunOptions, stepOpts StepOptions, shouldStop func() bool) (RunResult, error) {
	iterations, err := NormalizeIterations(state, opts)
	if err != nil {
		return RunResult{State: state}, err
	}

	current := state
	completed := 0
	for i := 0; i < iterations*2; i++ {
		if ctx.Err() != nil || (shouldStop != nil && shouldStop()) {
			return RunResult{State: current, StepsCompleted: completed, Cancelled: true}, nil
		}
		next, err := e.RunNextStep(ctx, current, stepOpts)
		if err != nil {
			return RunResult{State: current, StepsCompleted: completed}, err
		}
		current = next
		completed++
	}
	return RunResult{State: current, StepsCompleted: completed}, nil
}

// Restore adopts a history record's snapshot as the current output and
// appends a restore event. Restore events never count as phase steps, so
// the additive/reductive alternation is unaffected.
func (e *Engine) Restore(state ProjectState, recordIndex int) (ProjectState, error) {
	if recordIndex < 0 || recordIndex >= len(state.History) {
		return state, fmt.Errorf("%w: %d", ErrRecordIndex, recordIndex)
	}
	snapshot := state.History[recordIndex].OutputSnapshot
	next := state.Clone()
	next.CurrentOutput = snapshot
	next.History = append(next.History, IterationRecord{
		EventType:      EventRestore,
		OutputSnapshot: snapshot,
		NoteSummary:    fmt.Sprintf("Restored from history entry %d.", recordIndex+1),
		CreatedAt:      e.timestamp(),
	})
	return next, nil
}

// RecordPromptArchitect appends a prompt_architect event documenting a
// template-generation run. Like every non-phase event it never counts
// toward phase-step indexing.
func (e *Engine) RecordPromptArchitect(state ProjectState, modelUsed, note string) ProjectState {
	next := state.Clone()
	next.History = append(next.History, IterationRecord{
		EventType:   EventPromptArchitect,
		ModelUsed:   modelUsed,
		NoteSummary: note,
		CreatedAt:   e.timestamp(),
	})
	return next
}

func (e *Engine) buildContext(state ProjectState, step PlannedStep) map[string]string {
	phaseRules := state.AdditiveAllowedChanges
	if step.PhaseName == PhaseReductive {
		phaseRules = state.ReductiveAllowedChanges
	}
	return map[string]string{
		template.TokenOutcome:        state.Outcome,
		template.TokenRequirements:   state.RequirementsConstraints,
		template.TokenSpecialRes:     state.SpecialResources,
		template.TokenFormat:         state.OutputFormat,
		template.TokenFormatGuidance: formats.Guidance(state.OutputFormat),
		template.TokenPhaseRules:     phaseRules,
		template.TokenCurrentOutput:  state.CurrentOutput,
		template.TokenIterationIndex: strconv.Itoa(step.IterationIndex),
		template.TokenPhaseName:      step.PhaseName,
	}
}

func (e *Engine) temperatureForPhase(phase string) *float64 {
	if phase == PhaseReductive && e.cfg.ReductiveTemperature != nil {
		return e.cfg.ReductiveTemperature
	}
	if phase == PhaseAdditive && e.cfg.AdditiveTemperature != nil {
		return e.cfg.AdditiveTemperature
	}
	temp := defaultTemperature
	return &temp
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// mentionsFormat reports whether rendered prompt text already covers the
// output format, either via the guidance block or by naming the format.
func mentionsFormat(rendered, formatName string) bool {
	lower := strings.ToLower(rendered)
	if strings.Contains(lower, "output format guidance") {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(formatName))
	return name != "" && strings.Contains(lower, name)
}

func buildRepairPrompt(formatName, validatorMessage, failingText string) string {
	return strings.Join([]string{
		"The following output must be valid " + formatName + " but failed structural validation.",
		"Validator message: " + validatorMessage,
		"",
		formats.Guidance(formatName),
		"",
		"Rewrite the output so it is structurally valid " + formatName + ".",
		"Preserve the content and meaning; change only what is needed for validity.",
		"Return only the corrected output with no commentary.",
		"",
		"Output to repair:",
		failingText,
	}, "\n")
}
