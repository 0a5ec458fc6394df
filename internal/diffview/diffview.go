// Package diffview renders a line diff between two output snapshots, used to
// inspect what a refinement step changed.
package diffview

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies one rendered diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is a single line of the rendered diff.
type Line struct {
	Type    LineType
	Content string
}

// Compare computes a line-level diff between two snapshots. Character-level
// diffing on prose produces noise, so inputs are diffed whole lines at a time.
func Compare(previous, selected string) []Line {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	prevRunes, selRunes, lineIndex := dmp.DiffLinesToRunes(previous, selected)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(prevRunes, selRunes, false), lineIndex)

	var lines []Line
	for _, d := range diffs {
		var kind LineType
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		case diffmatchpatch.DiffDelete:
			kind = LineRemoved
		default:
			kind = LineContext
		}
		for _, content := range splitLines(d.Text) {
			lines = append(lines, Line{Type: kind, Content: content})
		}
	}
	return lines
}

// Unified renders the diff as unified-style text with labeled headers. Equal
// snapshots render the headers plus a no-change marker.
func Unified(previousLabel, selectedLabel, previous, selected string) string {
	var b strings.Builder
	b.WriteString("--- " + previousLabel + "\n")
	b.WriteString("+++ " + selectedLabel + "\n")

	if previous == selected {
		b.WriteString("(no changes)\n")
		return b.String()
	}
	for _, line := range Compare(previous, selected) {
		switch line.Type {
		case LineAdded:
			b.WriteString("+")
		case LineRemoved:
			b.WriteString("-")
		default:
			b.WriteString(" ")
		}
		b.WriteString(line.Content + "\n")
	}
	return b.String()
}

// splitLines splits diff text into lines without a phantom trailing entry. A
// segment of just "\n" is one empty line, not zero lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
