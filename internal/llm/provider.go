package llm

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyResponse is returned when a provider answers with no content
var ErrEmptyResponse = errors.New("empty response from LLM")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one completion, resolving tool calls when the provider supports them
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for a single completion
type CompletionRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature overrides the configured temperature when non-nil
	Temperature *float64

	// JSON asks the provider to answer with a single JSON object
	JSON bool

	// Tools the model may call before answering. Providers without
	// function calling ignore them; callers must inline the data instead.
	Tools []Tool

	// MaxToolRounds bounds the call/answer loop (0 uses the provider default)
	MaxToolRounds int
}

// CompletionResponse contains the model output
type CompletionResponse struct {
	// Text is the final assistant message
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption across all rounds
	TokensUsed int

	// ToolCalls counts tool invocations made while answering
	ToolCalls int
}

// Tool is a function the model can call during a completion
type Tool struct {
	Name        string
	Description string

	// Parameters is a JSON schema object describing the arguments
	Parameters map[string]any

	// Call receives the raw JSON arguments and returns the tool output
	Call func(ctx context.Context, args string) (string, error)
}

// SupportsTools reports whether p resolves Tool calls natively
func SupportsTools(p Provider) bool {
	ts, ok := p.(interface{ SupportsTools() bool })
	return ok && ts.SupportsTools()
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Temperature used when the request does not override it
	Temperature float64

	// MaxToolRounds is the default bound on tool-call loops
	MaxToolRounds int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:      "", // Disabled by default
		Timeout:       60 * time.Second,
		MaxTokens:     1500,
		Temperature:   0.2,
		MaxToolRounds: 3,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1500
}

// toolRounds resolves the tool-loop budget: request, then config, then 3
func (c Config) toolRounds(req CompletionRequest) int {
	if req.MaxToolRounds > 0 {
		return req.MaxToolRounds
	}
	if c.MaxToolRounds > 0 {
		return c.MaxToolRounds
	}
	return 3
}

func (c Config) temperature(req CompletionRequest) float64 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return c.Temperature
}
