package engine

import (
	"context"

	"promptforge/internal/llm"
)

// scriptedLLM returns canned responses in order and records every request.
type scriptedLLM struct {
	responses []string
	err       error
	calls     []llm.Request
}

func (f *scriptedLLM) GenerateText(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	text := "generated output"
	if len(f.responses) > 0 {
		text = f.responses[0]
		f.responses = f.responses[1:]
	}
	return llm.Response{Text: text, ModelUsed: "test-budget-model"}, nil
}

func sampleState(format string) ProjectState {
	state := NewProjectState()
	state.Outcome = "A concise landing page"
	state.RequirementsConstraints = "Keep it short"
	state.OutputFormat = format
	state.AdditiveTemplate = "Improve {{CURRENT_OUTPUT}} as {{FORMAT}}."
	state.ReductiveTemplate = "Tighten {{CURRENT_OUTPUT}} as {{FORMAT}}."
	return state
}
