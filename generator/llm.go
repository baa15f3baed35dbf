package generator

import "context"

// Prompt is a single system+user exchange sent to a model.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// FileID references a provider-side file (Anthropic Files API) attached
	// as additional source material. Ignored by clients without file support.
	FileID string
}

// LLMClient abstracts a hosted text-generation provider so clients can be
// swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}
