package embeddings

import (
	"fmt"
	"os"

	"github.com/finscribe/finscribe/internal/config"
)

// NewEmbedder creates an embedder for the configured embedding provider.
// ProviderNone returns (nil, nil): the knowledge collaborator degrades to
// keyword matching when no embedder is available.
func NewEmbedder(cfg config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		envVar := config.APIKeyEnvVar(config.ProviderOpenAI)
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", envVar)
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(cfg.EmbeddingModel)), nil

	case config.ProviderOllama:
		return NewOllamaEmbedder(cfg.EmbeddingModel, 768, cfg.OllamaURL), nil

	case config.ProviderNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider type: %s", cfg.EmbeddingProvider)
	}
}
