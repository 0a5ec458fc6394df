// Package llm turns tiered generation requests into normalized text
// responses against a chat-completions backend, absorbing request-shape
// variance between models and retrying transient failures.
package llm

import "context"

// Tier names a quality/cost class of model resolved to a concrete model name.
type Tier string

const (
	TierBudget  Tier = "budget"
	TierPremium Tier = "premium"
)

// Request describes one generation call.
type Request struct {
	Tier       Tier
	SystemText string
	UserText   string

	// Temperature is sent only when non-nil; some models reject the field.
	Temperature *float64
	// MaxOutputTokens defaults to 1200 when zero.
	MaxOutputTokens int
	// ModelOverride bypasses tier resolution when non-empty.
	ModelOverride string
	// EnableSearch asks for backend search augmentation on models that
	// accept it; the client silently drops it where rejected.
	EnableSearch bool
}

// Response is the normalized result of a generation call. Empty Text is a
// valid response; emptiness handling belongs to the caller.
type Response struct {
	Text         string
	ModelUsed    string
	RequestID    string
	InputTokens  int
	OutputTokens int
}

// Generator is the interface the engine and architect consume; tests swap in
// scripted fakes.
type Generator interface {
	GenerateText(ctx context.Context, req Request) (Response, error)
}
