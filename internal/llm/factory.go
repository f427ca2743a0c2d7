package llm

import (
	"fmt"
	"os"

	"github.com/finscribe/finscribe/internal/config"
)

// NewProvider creates an LLM provider for the configured provider type.
// ProviderNone returns (nil, nil): document generators fall back to their
// deterministic templates when no provider is available.
func NewProvider(cfg config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		envVar := config.APIKeyEnvVar(config.ProviderOpenAI)
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", envVar)
		}
		return NewOpenAIProvider(apiKey, cfg.Model), nil

	case config.ProviderOllama:
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		return NewOllamaProvider(url, cfg.Model), nil

	case config.ProviderNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}
