package publisher

import (
	"encoding/json"
	"os"
	"strings"
)

// Config holds the Ghost admin credential and the AI provider keys.
type Config struct {
	// GhostAdminKey is the colon-delimited "<key_id>:<hex_secret>" admin API key.
	GhostAdminKey string `json:"ghost_admin_key"`
	// GhostURL is the base URL of the Ghost instance, no trailing slash.
	GhostURL string `json:"ghost_url"`

	PerplexityAPIKey string `json:"perplexity_api_key"`
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	OpenAIAPIKey     string `json:"openai_api_key"`

	Models     *ModelConfig `json:"models,omitempty"`
	ServerAddr string       `json:"server_addr,omitempty"`
}

// ModelConfig overrides the default model per provider role.
type ModelConfig struct {
	Research string `json:"research,omitempty"`
	Writer   string `json:"writer,omitempty"`
	Image    string `json:"image,omitempty"`
}

// ResearchModel returns the configured research model or the default.
func (c Config) ResearchModel() string {
	if c.Models != nil && c.Models.Research != "" {
		return c.Models.Research
	}
	return "sonar-pro"
}

// WriterModel returns the configured writer model or the default.
func (c Config) WriterModel() string {
	if c.Models != nil && c.Models.Writer != "" {
		return c.Models.Writer
	}
	return "claude-3-5-sonnet"
}

// ImageModel returns the configured image model or the default.
func (c Config) ImageModel() string {
	if c.Models != nil && c.Models.Image != "" {
		return c.Models.Image
	}
	return "dall-e-3"
}

// LoadConfig reads JSON config from disk, filling any blank field from the
// environment. A missing file is not an error by itself; missing required
// values after the environment fallback are.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, &ConfigError{Field: path, Reason: err.Error()}
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	fillFromEnv(&cfg.GhostAdminKey, "GHOST_ADMIN_API_KEY")
	fillFromEnv(&cfg.GhostURL, "GHOST_API_URL")
	fillFromEnv(&cfg.PerplexityAPIKey, "PERPLEXITY_API_KEY")
	fillFromEnv(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	fillFromEnv(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")

	cfg.GhostURL = strings.TrimRight(cfg.GhostURL, "/")

	required := []struct{ field, value string }{
		{"ghost_admin_key", cfg.GhostAdminKey},
		{"ghost_url", cfg.GhostURL},
		{"perplexity_api_key", cfg.PerplexityAPIKey},
		{"anthropic_api_key", cfg.AnthropicAPIKey},
		{"openai_api_key", cfg.OpenAIAPIKey},
	}
	for _, r := range required {
		if r.value == "" {
			return Config{}, &ConfigError{Field: r.field, Reason: "missing (set it in the config file or environment)"}
		}
	}

	// Fail on a malformed admin key now, before any network call.
	if _, err := mintToken(cfg.GhostAdminKey, timeNow()); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func fillFromEnv(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}
