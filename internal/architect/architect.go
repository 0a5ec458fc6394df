// Package architect generates the additive/reductive prompt templates for a
// project. Generation runs at the premium tier with a strict post-generation
// quality gate; any backend failure or low-quality result degrades to a
// deterministic fallback template instead of propagating.
package architect

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"promptforge/internal/engine"
	"promptforge/internal/llm"
)

// Tags delimiting the sections of a combined generation response.
const (
	additiveOpenTag   = "<ADDITIVE_TEMPLATE>"
	additiveCloseTag  = "</ADDITIVE_TEMPLATE>"
	reductiveOpenTag  = "<REDUCTIVE_TEMPLATE>"
	reductiveCloseTag = "</REDUCTIVE_TEMPLATE>"
	notesOpenTag      = "<NOTES>"
	notesCloseTag     = "</NOTES>"
)

// One retry when the model returns an untagged/malformed layout.
const maxGenerationAttempts = 2

// Markers that disqualify a generated template outright.
var lowQualityMarkers = []string{
	"paste the content",
	"paste your content",
	"paste the text",
	"please provide the content",
	"please paste",
	"[insert",
	"lorem ipsum",
}

// Architect generates templates through an LLM generator.
type Architect struct {
	llm    llm.Generator
	logger *zap.Logger
}

// New builds an Architect. A nil logger is replaced with a no-op.
func New(generator llm.Generator, logger *zap.Logger) *Architect {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Architect{llm: generator, logger: logger}
}

// Result carries generated templates. A phase that was not requested keeps
// its zero value; callers must not overwrite existing templates with it.
type Result struct {
	Additive  string
	Reductive string
	Notes     string
	ModelUsed string
	// Degraded is set when a deterministic fallback replaced the model's
	// output for at least one requested phase.
	Degraded bool
}

// Request selects which phase templates to (re)generate.
type Request struct {
	Additive  bool
	Reductive bool
}

// GenerateTemplates produces templates for the requested phases. Both phases
// share one combined premium-tier call; a single phase costs exactly one
// call. Backend errors are absorbed into fallback templates and noted, never
// escalated.
func (a *Architect) GenerateTemplates(ctx context.Context, state engine.ProjectState, req Request) (Result, error) {
	if !req.Additive && !req.Reductive {
		return Result{}, fmt.Errorf("architect: no phase requested")
	}

	var result Result
	raw, modelUsed, err := a.callModel(ctx, state, req)
	result.ModelUsed = modelUsed
	if err != nil {
		category := llm.CategoryOf(err)
		a.logger.Warn("template generation failed, using fallback",
			zap.String("category", string(category)),
			zap.Error(err))
		result.Degraded = true
		result.Notes = fmt.Sprintf("Template generation failed (%s); deterministic fallback used.", category)
		if req.Additive {
			result.Additive = FallbackTemplate(state, engine.PhaseAdditive)
		}
		if req.Reductive {
			result.Reductive = FallbackTemplate(state, engine.PhaseReductive)
		}
		return result, nil
	}

	additiveRaw, reductiveRaw, notes := splitSections(raw)
	result.Notes = notes
	if result.Notes == "" {
		result.Notes = "Templates generated."
	}

	if req.Additive {
		result.Additive, result.Degraded = a.gate(state, engine.PhaseAdditive, additiveRaw, result.Degraded)
	}
	if req.Reductive {
		result.Reductive, result.Degraded = a.gate(state, engine.PhaseReductive, reductiveRaw, result.Degraded)
	}
	return result, nil
}

// callModel issues the generation call, retrying once when the response has
// no recognizable tagged sections.
func (a *Architect) callModel(ctx context.Context, state engine.ProjectState, req Request) (string, string, error) {
	prompt := buildGenerationPrompt(state, req)
	var lastText, modelUsed string
	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		resp, err := a.llm.GenerateText(ctx, llm.Request{
			Tier:            llm.TierPremium,
			UserText:        prompt,
			MaxOutputTokens: 2400,
		})
		if err != nil {
			return "", modelUsed, err
		}
		modelUsed = resp.ModelUsed
		lastText = resp.Text
		if hasRequestedSections(resp.Text, req) {
			return resp.Text, modelUsed, nil
		}
		a.logger.Warn("template generation returned malformed layout",
			zap.Int("attempt", attempt))
	}
	// The sections stay empty; the quality gate will substitute fallbacks.
	return lastText, modelUsed, nil
}

// gate normalizes one generated template and substitutes the deterministic
// fallback when the result fails the quality checks.
func (a *Architect) gate(state engine.ProjectState, phase, raw string, degraded bool) (string, bool) {
	cleaned := NormalizeTemplate(state, phase, raw)
	if cleaned == "" {
		return FallbackTemplate(state, phase), true
	}
	return cleaned, degraded
}

func hasRequestedSections(text string, req Request) bool {
	if req.Additive && !strings.Contains(text, additiveOpenTag) {
		return false
	}
	if req.Reductive && !strings.Contains(text, reductiveOpenTag) {
		return false
	}
	return true
}

func splitSections(text string) (additive, reductive, notes string) {
	additive = between(text, additiveOpenTag, additiveCloseTag)
	reductive = between(text, reductiveOpenTag, reductiveCloseTag)
	notes = strings.TrimSpace(between(text, notesOpenTag, notesCloseTag))
	return additive, reductive, notes
}

func between(text, openTag, closeTag string) string {
	start := strings.Index(text, openTag)
	if start < 0 {
		return ""
	}
	rest := text[start+len(openTag):]
	end := strings.Index(rest, closeTag)
	if end < 0 {
		return rest
	}
	return rest[:end]
}
