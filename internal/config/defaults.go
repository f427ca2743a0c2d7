package config

// defaultModels maps each provider to its default generation and embedding models.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderNone,
		Model:             "",
		EmbeddingProvider: ProviderNone,
		EmbeddingModel:    "",
		OllamaURL:         "http://localhost:11434",
		DataDir:           ".finscribe",
		Port:              8460,
		AllowAllOrigins:   false,
		Router: RouterConfig{
			Threshold: 0.12,
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrency:           4,
			CapabilityTimeoutSeconds: 120,
			MaxRetries:               3,
			RetryBackoffMS:           200,
		},
	}
}

// DefaultModelsFor returns the default generation and embedding model names
// for the given provider. Empty strings for ProviderNone.
func DefaultModelsFor(provider ProviderType) (model, embeddingModel string) {
	if m, ok := defaultModels[provider]; ok {
		return m.Model, m.EmbeddingModel
	}
	return "", ""
}
