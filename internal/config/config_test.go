package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderNone {
		t.Errorf("expected default provider %q, got %q", ProviderNone, cfg.Provider)
	}
	if cfg.Port != 8460 {
		t.Errorf("expected default port 8460, got %d", cfg.Port)
	}
	if cfg.Router.Threshold != 0.12 {
		t.Errorf("expected default router threshold 0.12, got %v", cfg.Router.Threshold)
	}
	if cfg.Orchestrator.MaxRetries != 3 {
		t.Errorf("expected default max_retries 3, got %d", cfg.Orchestrator.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.finscribe.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.DataDir = "data"
	original.Port = 9000
	original.Router.Threshold = 0.2
	original.Orchestrator.CapabilityTimeoutSeconds = 30

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("data_dir: got %q, want %q", loaded.DataDir, original.DataDir)
	}
	if loaded.Port != original.Port {
		t.Errorf("port: got %d, want %d", loaded.Port, original.Port)
	}
	if loaded.Router.Threshold != original.Router.Threshold {
		t.Errorf("router.threshold: got %v, want %v", loaded.Router.Threshold, original.Router.Threshold)
	}
	if loaded.Orchestrator.CapabilityTimeoutSeconds != original.Orchestrator.CapabilityTimeoutSeconds {
		t.Errorf("capability_timeout_seconds: got %d, want %d",
			loaded.Orchestrator.CapabilityTimeoutSeconds, original.Orchestrator.CapabilityTimeoutSeconds)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load of missing file should succeed with defaults, got %v", err)
	}
	if loaded.Port != DefaultConfig().Port {
		t.Errorf("expected default port, got %d", loaded.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad provider", func(c *Config) { c.Provider = "gemini" }},
		{"missing model", func(c *Config) { c.Provider = ProviderOpenAI; c.Model = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"bad threshold", func(c *Config) { c.Router.Threshold = 1.5 }},
		{"zero concurrency", func(c *Config) { c.Orchestrator.MaxConcurrency = 0 }},
		{"negative retries", func(c *Config) { c.Orchestrator.MaxRetries = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}
