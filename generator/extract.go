package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerationError is a provider failure or an unparseable structured result.
// RawText carries the model's unparsed reply for diagnostics when available.
type GenerationError struct {
	Stage   string
	RawText string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Schema lists the fields a structured completion must contain. Fields named
// in ArrayFields are normalized so a lone string becomes a one-element array.
type Schema struct {
	Required    []string
	ArrayFields []string
}

// CompleteStructured invokes the model and parses the JSON object embedded in
// its reply, stripping a surrounding markdown fence if present. There is no
// partial-result salvage: any parse or validation failure fails the call.
func CompleteStructured(ctx context.Context, llm LLMClient, stage string, prompt Prompt, schema Schema) (map[string]any, error) {
	raw, err := llm.Complete(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Stage: stage, Err: err}
	}

	text := extractFencedJSON(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &GenerationError{Stage: stage, RawText: raw, Err: fmt.Errorf("parsing structured response: %w", err)}
	}

	for _, field := range schema.Required {
		if _, ok := obj[field]; !ok {
			return nil, &GenerationError{Stage: stage, RawText: raw, Err: fmt.Errorf("missing field %q", field)}
		}
	}
	for _, field := range schema.ArrayFields {
		if s, ok := obj[field].(string); ok {
			obj[field] = []any{s}
		}
	}
	return obj, nil
}

// extractFencedJSON returns the interior of the first balanced fenced block,
// preferring a json-tagged fence over an untagged one, falling back to the
// whole text. Fences are recognized only at line starts, so fence tokens
// inside the payload's own string values do not truncate the block. When a
// reply carries several fenced blocks only the first is used.
func extractFencedJSON(text string) string {
	if block, ok := fencedBlock(text, "json"); ok {
		return block
	}
	if block, ok := fencedBlock(text, ""); ok {
		return block
	}
	return strings.TrimSpace(text)
}

// fencedBlock scans for an opening fence with the given language tag (empty
// tag means a bare fence) and returns the lines up to the matching close.
func fencedBlock(text, lang string) (string, bool) {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if start < 0 {
			if !strings.HasPrefix(trimmed, "```") {
				continue
			}
			tag := strings.TrimPrefix(trimmed, "```")
			if !strings.EqualFold(tag, lang) {
				continue
			}
			start = i + 1
			continue
		}
		if trimmed == "```" {
			return strings.TrimSpace(strings.Join(lines[start:i], "\n")), true
		}
	}
	return "", false
}

// stringField reads a string value out of a parsed completion, tolerating a
// missing or non-string value as empty.
func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}
