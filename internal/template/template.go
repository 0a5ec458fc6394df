// Package template implements the {{TOKEN}} substitution used by iteration
// prompts. Only tokens from the fixed vocabulary are ever replaced; anything
// else inside double braces passes through untouched so authors can keep
// literal braces in their prompts.
package template

import (
	"regexp"
	"sort"
)

// Supported token names, in canonical order.
const (
	TokenOutcome        = "OUTCOME"
	TokenRequirements   = "REQUIREMENTS"
	TokenSpecialRes     = "SPECIAL_RESOURCES"
	TokenFormat         = "FORMAT"
	TokenFormatGuidance = "FORMAT_GUIDANCE"
	TokenPhaseRules     = "PHASE_RULES"
	TokenCurrentOutput  = "CURRENT_OUTPUT"
	TokenIterationIndex = "ITERATION_INDEX"
	TokenPhaseName      = "PHASE_NAME"
)

// SupportedTokens returns the fixed token vocabulary.
func SupportedTokens() []string {
	return []string{
		TokenOutcome,
		TokenRequirements,
		TokenSpecialRes,
		TokenFormat,
		TokenFormatGuidance,
		TokenPhaseRules,
		TokenCurrentOutput,
		TokenIterationIndex,
		TokenPhaseName,
	}
}

// tokenPattern permits whitespace inside the braces: {{ OUTCOME }}.
// Token names are case-sensitive upper snake case.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Z0-9_]+)\s*\}\}`)

var supportedSet = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range SupportedTokens() {
		set[tok] = struct{}{}
	}
	return set
}()

// Render replaces every supported token with its context value. Tokens absent
// from the context render as the empty string; unsupported tokens are left
// byte-for-byte unchanged.
func Render(templateText string, context map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(templateText, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		if _, ok := supportedSet[name]; !ok {
			return match
		}
		return context[name]
	})
}

// FindTokens returns the distinct token names referenced by a template,
// sorted for stable output.
func FindTokens(templateText string) []string {
	seen := make(map[string]struct{})
	for _, m := range tokenPattern.FindAllStringSubmatch(templateText, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report lists template problems found by Validate. Both slices are sorted.
// A non-empty report is advisory; rendering still proceeds.
type Report struct {
	Unknown         []string
	MissingRequired []string
}

// OK reports whether the template passed both checks.
func (r Report) OK() bool {
	return len(r.Unknown) == 0 && len(r.MissingRequired) == 0
}

// Validate scans a template for token names outside the allowed set and for
// required names the template never references.
func Validate(templateText string, allowed, required []string) Report {
	found := make(map[string]struct{})
	for _, name := range FindTokens(templateText) {
		found[name] = struct{}{}
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	var report Report
	for name := range found {
		if _, ok := allowedSet[name]; !ok {
			report.Unknown = append(report.Unknown, name)
		}
	}
	for _, name := range required {
		if _, ok := found[name]; !ok {
			report.MissingRequired = append(report.MissingRequired, name)
		}
	}
	sort.Strings(report.Unknown)
	sort.Strings(report.MissingRequired)
	return report
}
