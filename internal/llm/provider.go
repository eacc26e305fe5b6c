package llm

import "context"

// Provider defines the interface for LLM providers backing the LLM worker
// adapter. A provider only moves prompts and raw completions; parsing and
// validation of the findings envelope happens on this side of the boundary.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Extract runs one extraction prompt and returns the raw completion
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for one extraction call
type ExtractRequest struct {
	// Corpus is the opaque corpus reference handed to the worker
	Corpus string

	// SnapshotJSON is the prior accumulator snapshot, serialized, so the
	// model can corroborate or contradict earlier workers instead of
	// restating them
	SnapshotJSON string

	// Sections restricts which report sections the worker should fill
	Sections []string

	// Prompt overrides the default extraction prompt when non-empty
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExtractResponse contains the raw model output
type ExtractResponse struct {
	// Raw is the unparsed completion text, expected to hold the findings
	// JSON envelope
	Raw string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider (environment only, never persisted)
	APIKey string

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers,
	// local Ollama)
	BaseURL string

	// Timeout in seconds for a single call
	Timeout int

	// MaxTokens bounds the completion
	MaxTokens int
}

// DefaultConfig returns a disabled provider configuration
func DefaultConfig() Config {
	return Config{
		Timeout:   60,
		MaxTokens: 2000,
	}
}
