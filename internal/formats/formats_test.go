package formats

import (
	"strings"
	"testing"
)

func TestGuidanceKnownFormats(t *testing.T) {
	cases := map[string]string{
		"JSON":     "valid JSON only",
		"json":     "valid JSON only",
		"Markdown": "clear Markdown",
		"Python":   "valid Python code",
		"Text":     "plain text only",
	}
	for name, want := range cases {
		got := Guidance(name)
		if !strings.Contains(got, want) {
			t.Errorf("Guidance(%q) = %q, want substring %q", name, got, want)
		}
	}
}

func TestGuidanceUnknownOrBlankFallsBackToText(t *testing.T) {
	for _, name := range []string{"", "  ", "HTML", "yaml"} {
		if got := Guidance(name); !strings.Contains(got, "plain text only") {
			t.Errorf("Guidance(%q) = %q, want Text guidance", name, got)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, name := range []string{"markdown", "JSON", "Text", "PYTHON"} {
		if !IsSupported(name) {
			t.Errorf("IsSupported(%q) = false, want true", name)
		}
	}
	if IsSupported("HTML") {
		t.Error("IsSupported(HTML) = true, want false")
	}
}
