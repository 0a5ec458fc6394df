// Package formats holds the per-format instruction blocks injected into
// iteration prompts when a template does not cover formatting itself.
package formats

import "strings"

// Canonical format names, as stored in project files.
const (
	Markdown = "Markdown"
	JSON     = "JSON"
	Text     = "Text"
	Python   = "Python"
)

var guidance = map[string]string{
	"JSON": "Output format guidance: return valid JSON only.\n" +
		"Do not include markdown fences or explanatory text.\n" +
		"Ensure keys and string values are properly quoted.",
	"MARKDOWN": "Output format guidance: return clear Markdown.\n" +
		"Use concise headings and bullet lists where helpful.\n" +
		"Avoid code fences unless code is explicitly requested.",
	"PYTHON": "Output format guidance: return syntactically valid Python code.\n" +
		"Keep code runnable and avoid explanatory prose outside comments.\n" +
		"Use explicit imports when needed.",
	"TEXT": "Output format guidance: return plain text only.\n" +
		"Keep structure readable with short paragraphs or numbered lines.\n" +
		"Avoid markdown syntax unless requested.",
}

// Normalize upper-cases and trims a format name. Blank input normalizes to TEXT.
func Normalize(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return "TEXT"
	}
	return n
}

// Guidance returns the instruction block for a format. Unknown names resolve
// to the Text guidance.
func Guidance(name string) string {
	if text, ok := guidance[Normalize(name)]; ok {
		return text
	}
	return guidance["TEXT"]
}

// Supported lists the canonical format names.
func Supported() []string {
	return []string{Markdown, JSON, Text, Python}
}

// IsSupported reports whether name matches a supported format, ignoring case.
func IsSupported(name string) bool {
	n := Normalize(name)
	for _, f := range Supported() {
		if strings.ToUpper(f) == n {
			return true
		}
	}
	return false
}
