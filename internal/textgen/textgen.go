package textgen

import "context"

// Generator produces natural-language text from a prompt. The engine
// treats generation as an opaque collaborator: any failure is handled
// at the call site with a deterministic fallback, never propagated
// into conversation state.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds generator configuration.
type Config struct {
	Endpoint    string  `json:"endpoint"`
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}
