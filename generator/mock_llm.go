package generator

import "context"

// MockLLM is a scripted LLMClient for tests and local debugging; it never
// calls an external model.
type MockLLM struct {
	// Reply inspects the prompt and fabricates a response. When nil, the
	// prompt's user text is echoed back.
	Reply func(prompt Prompt) (string, error)
}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if m.Reply != nil {
		return m.Reply(prompt)
	}
	return prompt.User, nil
}
