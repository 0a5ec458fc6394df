package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderReplacesKnownTokens(t *testing.T) {
	out := Render("Goal: {{OUTCOME}} in {{FORMAT}}", map[string]string{
		TokenOutcome: "a landing page",
		TokenFormat:  "Markdown",
	})
	assert.Equal(t, "Goal: a landing page in Markdown", out)
}

func TestRenderLeavesUnknownTokensUntouched(t *testing.T) {
	out := Render("{{CURRENT_OUTPUT}} and {{FOO}}", map[string]string{
		TokenCurrentOutput: "draft",
	})
	assert.Equal(t, "draft and {{FOO}}", out)
}

func TestRenderPermitsWhitespaceInsideBraces(t *testing.T) {
	out := Render("x={{  PHASE_NAME  }}", map[string]string{TokenPhaseName: "additive"})
	assert.Equal(t, "x=additive", out)
}

func TestRenderIsCaseSensitive(t *testing.T) {
	// Lower-case names never match the token pattern at all.
	out := Render("{{outcome}}", map[string]string{TokenOutcome: "x"})
	assert.Equal(t, "{{outcome}}", out)
}

func TestRenderMissingContextValueBecomesEmpty(t *testing.T) {
	out := Render("[{{PHASE_RULES}}]", map[string]string{})
	assert.Equal(t, "[]", out)
}

func TestFindTokens(t *testing.T) {
	tokens := FindTokens("{{OUTCOME}} {{FOO}} {{ OUTCOME }}")
	assert.Equal(t, []string{"FOO", "OUTCOME"}, tokens)
}

func TestValidateReportsUnknownAndMissing(t *testing.T) {
	report := Validate(
		"{{OUTCOME}} {{BOGUS}}",
		SupportedTokens(),
		[]string{TokenCurrentOutput, TokenOutcome},
	)
	assert.Equal(t, []string{"BOGUS"}, report.Unknown)
	assert.Equal(t, []string{TokenCurrentOutput}, report.MissingRequired)
	assert.False(t, report.OK())
}

func TestValidateCleanTemplate(t *testing.T) {
	report := Validate("{{CURRENT_OUTPUT}}", SupportedTokens(), []string{TokenCurrentOutput})
	assert.True(t, report.OK())
}
