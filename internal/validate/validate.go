// Package validate runs structural syntax checks over generated output.
// It only reports; repair is the engine's job.
package validate

import (
	"context"
	"encoding/json"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"promptforge/internal/formats"
)

// Result is the normalized outcome of one structural check.
//
// Applicable distinguishes "validation ran and passed" from "this format has
// no structural grammar". Markdown and Text always yield Applicable=false,
// OK=true.
type Result struct {
	OK         bool
	Message    string
	Applicable bool
	Format     string
}

// JSON checks that text parses as a single JSON document.
func JSON(text string) Result {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		line, col := errorPosition(text, err)
		return Result{
			OK:         false,
			Message:    fmt.Sprintf("Invalid JSON: %s at line %d, column %d.", err.Error(), line, col),
			Applicable: true,
			Format:     "JSON",
		}
	}
	return Result{OK: true, Message: "Valid JSON.", Applicable: true, Format: "JSON"}
}

// errorPosition maps a json error's byte offset onto 1-based line/column.
func errorPosition(text string, err error) (int, int) {
	var offset int64
	switch e := err.(type) {
	case *json.SyntaxError:
		offset = e.Offset
	case *json.UnmarshalTypeError:
		offset = e.Offset
	default:
		return 1, 1
	}
	if offset < 1 {
		offset = 1
	}
	line, col := 1, 1
	for i := int64(0); i < offset-1 && i < int64(len(text)); i++ {
		if text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// Python checks that text parses as Python source using the tree-sitter
// grammar. The code is never executed.
func Python(text string) Result {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(text))
	if err != nil {
		return Result{
			OK:         false,
			Message:    fmt.Sprintf("Invalid Python: parser failure (%v) at line 1, column 1.", err),
			Applicable: true,
			Format:     "PYTHON",
		}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		row, col := firstErrorPoint(root)
		return Result{
			OK:         false,
			Message:    fmt.Sprintf("Invalid Python: syntax error at line %d, column %d.", row, col),
			Applicable: true,
			Format:     "PYTHON",
		}
	}
	return Result{OK: true, Message: "Valid Python syntax.", Applicable: true, Format: "PYTHON"}
}

// firstErrorPoint walks the tree for the first ERROR or missing node and
// returns its 1-based position.
func firstErrorPoint(node *sitter.Node) (int, int) {
	if node.Type() == "ERROR" || node.IsMissing() {
		p := node.StartPoint()
		return int(p.Row) + 1, int(p.Column) + 1
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if row, col := firstErrorPoint(child); row > 0 {
			return row, col
		}
	}
	p := node.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

// ForFormat dispatches to the validator for formatName. Formats without a
// structural grammar pass through with Applicable=false.
func ForFormat(text, formatName string) Result {
	switch normalized := formats.Normalize(formatName); normalized {
	case "JSON":
		return JSON(text)
	case "PYTHON":
		return Python(text)
	default:
		return Result{
			OK:         true,
			Message:    fmt.Sprintf("Validation not applicable for format '%s'.", normalized),
			Applicable: false,
			Format:     normalized,
		}
	}
}

// DescribeStatus renders a UI-ready status/message pair for current output.
func DescribeStatus(text, formatName string) (string, string) {
	result := ForFormat(text, formatName)
	switch {
	case !result.Applicable:
		return "Validation status: Not applicable", "Validation message: (not applicable for selected format)"
	case result.OK:
		return "Validation status: Valid", "Validation message: None"
	default:
		return "Validation status: Invalid", "Validation message: " + result.Message
	}
}
