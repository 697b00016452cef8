package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a raw LLM client based on the provided configuration.
// Most callers want NewResilientClient instead, which adds rate limiting and
// a circuit breaker.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		return newGeminiClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewResilientClient creates a provider client wrapped with rate limiting and
// circuit breaking.
func NewResilientClient(cfg Config) (Client, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return newResilientClient(client, cfg), nil
}
