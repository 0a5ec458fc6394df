package architect

import (
	"regexp"
	"strings"

	"promptforge/internal/engine"
	"promptforge/internal/formats"
	"promptforge/internal/template"
)

// currentOutputSentinel protects the one token that must survive inlining.
const currentOutputSentinel = "\x00CURRENT_OUTPUT\x00"

var (
	currentOutputPattern = regexp.MustCompile(`\{\{\s*CURRENT_OUTPUT\s*\}\}`)
	// Branching prose like "If {{CURRENT_OUTPUT}} is empty, ..." is handled
	// by the placeholder value, never by template text.
	branchingLinePattern = regexp.MustCompile(`(?i)^.*if\b.*current_output.*\bis\s+(empty|non-empty|not\s+empty)\b.*$`)
	codeFencePattern     = regexp.MustCompile("(?m)^```[a-zA-Z0-9_-]*[ \t]*$")
)

// NormalizeTemplate applies the post-generation quality gate to one phase
// template. It returns "" when the template must be discarded in favor of
// the deterministic fallback.
func NormalizeTemplate(state engine.ProjectState, phase, raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = codeFencePattern.ReplaceAllString(text, "")

	// Drop residual empty/non-empty branching lines.
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if branchingLinePattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")

	// Inline every recognized token except CURRENT_OUTPUT, which must stay
	// a live placeholder.
	text = currentOutputPattern.ReplaceAllString(text, currentOutputSentinel)
	text = template.Render(text, inlineContext(state, phase))
	text = strings.ReplaceAll(text, currentOutputSentinel, "{{CURRENT_OUTPUT}}")
	text = strings.TrimSpace(text)

	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, marker := range lowQualityMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}
	// Anything still shaped like a disallowed supported token means the
	// inlining failed; discard rather than ship a broken template.
	for _, name := range template.FindTokens(text) {
		if name != template.TokenCurrentOutput && isSupportedToken(name) {
			return ""
		}
	}

	if !strings.Contains(text, "{{CURRENT_OUTPUT}}") {
		text += "\n\nCurrent draft: {{CURRENT_OUTPUT}}"
	}
	return text
}

func isSupportedToken(name string) bool {
	for _, tok := range template.SupportedTokens() {
		if tok == name {
			return true
		}
	}
	return false
}

// inlineContext yields literal project values for token inlining. Iteration
// metadata has no literal value at authoring time and inlines to nothing.
func inlineContext(state engine.ProjectState, phase string) map[string]string {
	rules := state.AdditiveAllowedChanges
	if phase == engine.PhaseReductive {
		rules = state.ReductiveAllowedChanges
	}
	return map[string]string{
		template.TokenOutcome:        state.Outcome,
		template.TokenRequirements:   state.RequirementsConstraints,
		template.TokenSpecialRes:     state.SpecialResources,
		template.TokenFormat:         state.OutputFormat,
		template.TokenFormatGuidance: formats.Guidance(state.OutputFormat),
		template.TokenPhaseRules:     rules,
		template.TokenIterationIndex: "",
		template.TokenPhaseName:      phase,
	}
}

// FallbackTemplate is the deterministic template used when generation fails
// or the quality gate rejects the model's output. It is built entirely from
// project fields and always renders safely.
func FallbackTemplate(state engine.ProjectState, phase string) string {
	outcome := valueOr(state.Outcome, "No outcome provided.")
	requirements := valueOr(state.RequirementsConstraints, "No explicit requirements provided.")
	resources := valueOr(state.SpecialResources, "No explicit special resources provided.")
	format := valueOr(state.OutputFormat, "Markdown")

	rules := state.AdditiveAllowedChanges
	closing := "Apply additive improvements while preserving valid prior structure."
	if phase == engine.PhaseReductive {
		rules = state.ReductiveAllowedChanges
		closing = "Perform reductive simplification while preserving core correctness."
	}

	lines := []string{
		"You are in the " + phase + " phase.",
		"Adopt the expert role best suited to the work described below.",
		"Target output format: " + format,
		"",
		"Outcome:",
		outcome,
		"",
		"Requirements and constraints:",
		requirements,
		"",
		"Special resources:",
		resources,
	}
	if strings.TrimSpace(rules) != "" {
		lines = append(lines, "", "Allowed phase changes:", rules)
	}
	lines = append(lines,
		"",
		"Current output draft:",
		"{{CURRENT_OUTPUT}}",
		"",
		closing,
	)
	return strings.Join(lines, "\n")
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// buildGenerationPrompt asks the model to rewrite phase seed templates into
// better-engineered versions under hard constraints.
func buildGenerationPrompt(state engine.ProjectState, req Request) string {
	var sections []string
	sections = append(sections,
		"You are a prompt engineer. Rewrite the seed prompt template(s) below into sharper,",
		"better-engineered templates for an iterative refinement loop.",
		"",
		"Hard constraints:",
		"- Keep the literal token {{CURRENT_OUTPUT}} exactly once; it is replaced at run time.",
		"- Do not use any other {{...}} tokens; write project details as literal text.",
		"- Never ask the user to paste or provide missing content.",
		"- Instruct the executor to infer and adopt the appropriate expert role from context;",
		"  do not hardcode a generic persona.",
		"- Do not write conditional prose about {{CURRENT_OUTPUT}} being empty or non-empty.",
		"")
	if req.Additive {
		sections = append(sections,
			additiveOpenTag,
			FallbackTemplate(state, engine.PhaseAdditive),
			additiveCloseTag,
			"")
	}
	if req.Reductive {
		sections = append(sections,
			reductiveOpenTag,
			FallbackTemplate(state, engine.PhaseReductive),
			reductiveCloseTag,
			"")
	}
	sections = append(sections,
		"Return the rewritten template(s) inside the same tags they arrived in,",
		"plus a short "+notesOpenTag+"..."+notesCloseTag+" section describing your changes.")
	return strings.Join(sections, "\n")
}
