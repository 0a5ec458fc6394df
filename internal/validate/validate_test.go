package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONValid(t *testing.T) {
	result := JSON(`{"a": 1}`)
	assert.True(t, result.OK)
	assert.True(t, result.Applicable)
	assert.Equal(t, "JSON", result.Format)
	assert.Equal(t, "Valid JSON.", result.Message)
}

func TestJSONInvalidReportsLineAndColumn(t *testing.T) {
	result := JSON(`{a:1}`)
	assert.False(t, result.OK)
	assert.True(t, result.Applicable)
	assert.Contains(t, result.Message, "line")
	assert.Contains(t, result.Message, "column")
}

func TestJSONInvalidMultilinePosition(t *testing.T) {
	result := JSON("{\n  \"a\": 1,\n  bad\n}")
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "line 3")
}

func TestJSONEmptyInputIsInvalid(t *testing.T) {
	result := JSON("")
	assert.False(t, result.OK)
	assert.True(t, result.Applicable)
}

func TestPythonValid(t *testing.T) {
	result := Python("def add(a, b):\n    return a + b\n")
	assert.True(t, result.OK)
	assert.Equal(t, "Valid Python syntax.", result.Message)
}

func TestPythonInvalidReportsPosition(t *testing.T) {
	result := Python("def broken(:\n    pass\n")
	assert.False(t, result.OK)
	assert.True(t, result.Applicable)
	assert.Contains(t, result.Message, "line")
	assert.Contains(t, result.Message, "column")
}

func TestForFormatDispatch(t *testing.T) {
	assert.False(t, ForFormat(`{bad`, "json").OK)
	assert.False(t, ForFormat("def f(:\n  pass", "Python").OK)
	assert.True(t, ForFormat(`{"ok": true}`, "JSON").OK)
}

func TestForFormatNotApplicable(t *testing.T) {
	for _, format := range []string{"Markdown", "Text", "", "unknown"} {
		result := ForFormat("anything # not json", format)
		assert.True(t, result.OK, "format %q", format)
		assert.False(t, result.Applicable, "format %q", format)
	}
}

func TestDescribeStatus(t *testing.T) {
	status, message := DescribeStatus(`{"a": 1}`, "JSON")
	assert.Equal(t, "Validation status: Valid", status)
	assert.Equal(t, "Validation message: None", message)

	status, message = DescribeStatus(`{bad`, "JSON")
	assert.Equal(t, "Validation status: Invalid", status)
	assert.True(t, strings.HasPrefix(message, "Validation message: Invalid JSON"))

	status, _ = DescribeStatus("whatever", "Markdown")
	assert.Equal(t, "Validation status: Not applicable", status)
}
