// Package llm implements port.ChatModel for hosted chat-completion APIs.
package llm

import (
	"errors"
	"fmt"
	"os"

	"faqbot/internal/port"
)

// ErrEmptyResponse is returned when a provider answers without a choice or
// text block. Blank text is returned as is.
var ErrEmptyResponse = errors.New("empty response from chat model")

// Base URLs of OpenAI-compatible chat providers.
var providerBaseURLs = map[string]string{
	"groq":     "https://api.groq.com/openai/v1",
	"openai":   "https://api.openai.com/v1",
	"deepseek": "https://api.deepseek.com/v1",
}

// Config selects and authenticates a chat provider.
type Config struct {
	Provider  string
	APIKeyEnv string
	BaseURL   string
}

// New builds the chat model for cfg.Provider. The API key is read from the
// environment variable named by cfg.APIKeyEnv.
func New(cfg Config) (port.ChatModel, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(apiKey, cfg.BaseURL), nil
	case "", "groq", "openai", "deepseek":
		provider := cfg.Provider
		if provider == "" {
			provider = "groq"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = providerBaseURLs[provider]
		}
		return NewOpenAI(provider, apiKey, baseURL), nil
	default:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("unknown chat provider %q without base_url", cfg.Provider)
		}
		return NewOpenAI(cfg.Provider, apiKey, cfg.BaseURL), nil
	}
}

func splitSystem(messages []port.ChatMessage) (system []string, rest []port.ChatMessage) {
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
