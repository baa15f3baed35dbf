package publisher

import "fmt"

// ConfigError marks a missing or malformed credential/setting. It is fatal:
// the workflow must abort before any network call, and nothing retries it.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// PublishRejectedError is a non-success response from the CMS admin API.
// The draft is not retried; the response body is kept for diagnostics.
type PublishRejectedError struct {
	StatusCode int
	Body       string
}

func (e *PublishRejectedError) Error() string {
	return fmt.Sprintf("ghost rejected request: status %d: %s", e.StatusCode, e.Body)
}
