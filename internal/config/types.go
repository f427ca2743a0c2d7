package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	// ProviderNone disables LLM-backed generation; capabilities fall back
	// to their deterministic section templates.
	ProviderNone ProviderType = "none"
)

// Config is the top-level finscribe configuration, corresponding to .finscribe.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	OllamaURL         string       `yaml:"ollama_url" koanf:"ollama_url"`

	DataDir         string `yaml:"data_dir" koanf:"data_dir"`
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`

	Router       RouterConfig       `yaml:"router" koanf:"router"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" koanf:"orchestrator"`
}

// RouterConfig controls capability selection.
type RouterConfig struct {
	// Threshold is the minimum normalized keyword relevance score a
	// capability must exceed to be selected for a request.
	Threshold float64 `yaml:"threshold" koanf:"threshold"`
}

// OrchestratorConfig controls capability fan-out behaviour.
type OrchestratorConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" koanf:"max_concurrency"`
	// CapabilityTimeoutSeconds bounds each individual generation call.
	CapabilityTimeoutSeconds int `yaml:"capability_timeout_seconds" koanf:"capability_timeout_seconds"`
	// MaxRetries bounds retries of failed or timed-out generation calls.
	// Validation failures are never retried.
	MaxRetries     int `yaml:"max_retries" koanf:"max_retries"`
	RetryBackoffMS int `yaml:"retry_backoff_ms" koanf:"retry_backoff_ms"`
}
