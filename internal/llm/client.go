// Package llm provides clients for external text generation APIs. The
// generator is treated as a black box returning free text; making sense of
// that text is the receipt package's job.
package llm

import "context"

// Client defines the interface for generation providers.
type Client interface {
	// Generate sends a prompt and returns the model's raw text reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds provider configuration.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	SystemPrompt      string
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
}
