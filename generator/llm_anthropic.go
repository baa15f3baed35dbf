package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// AnthropicLLM implements LLMClient with llmkit's Anthropic messages API.
// The writer and social-copy stages run on it.
type AnthropicLLM struct {
	Model  string
	apiKey string
}

func NewAnthropicLLM(apiKey, model string) (*AnthropicLLM, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key missing")
	}
	if model == "" {
		return nil, errors.New("llm model is required")
	}
	return &AnthropicLLM{Model: model, apiKey: apiKey}, nil
}

// Complete sends the prompt. llmkit manages its own transport, so the context
// is accepted for interface parity but not threaded through.
func (a *AnthropicLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	settings := types.RequestSettings{
		Model:       a.Model,
		MaxTokens:   prompt.MaxTokens,
		Temperature: prompt.Temperature,
	}

	var files []types.File
	if prompt.FileID != "" {
		files = append(files, types.File{ID: prompt.FileID})
	}

	response, err := anthropic.PromptWithSettings(prompt.System, prompt.User, "", a.apiKey, settings, files...)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", errors.New("anthropic: no content in response")
	}
	return response.Content[0].Text, nil
}
