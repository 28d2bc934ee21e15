package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimtrace/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name returns (nil, nil): the caller runs offline.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config into an llm.Config,
// filling the API key from the provider's conventional env var when unset.
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	cfg := Config{
		Provider:      llmCfg.Provider,
		Model:         llmCfg.Model,
		APIKey:        llmCfg.APIKey,
		BaseURL:       llmCfg.BaseURL,
		Timeout:       llmCfg.Timeout,
		MaxTokens:     llmCfg.MaxTokens,
		Temperature:   llmCfg.Temperature,
		MaxToolRounds: llmCfg.MaxToolRounds,
		HTTPProxy:     httpCfg.HTTPProxy,
		HTTPSProxy:    httpCfg.HTTPSProxy,
		NoProxy:       httpCfg.NoProxy,
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}

	return cfg
}
