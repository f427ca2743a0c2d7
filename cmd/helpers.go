package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/config"
	"github.com/finscribe/finscribe/internal/conversation"
	"github.com/finscribe/finscribe/internal/db"
	"github.com/finscribe/finscribe/internal/embeddings"
	"github.com/finscribe/finscribe/internal/engine"
	"github.com/finscribe/finscribe/internal/generator"
	"github.com/finscribe/finscribe/internal/interpreter"
	"github.com/finscribe/finscribe/internal/knowledge"
	"github.com/finscribe/finscribe/internal/llm"
	"github.com/finscribe/finscribe/internal/orchestrator"
	"github.com/finscribe/finscribe/internal/render"
	"github.com/finscribe/finscribe/internal/router"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `finscribe init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildEngine assembles the full pipeline from config. The returned
// cleanup function closes the database and persists the knowledge store.
func buildEngine(cfg *config.Config, onProgress orchestrator.ProgressFunc) (*engine.Engine, func(), error) {
	database, err := db.Open(filepath.Join(cfg.DataDir, "finscribe.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	provider, err := llm.NewProvider(*cfg)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(*cfg)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	// The knowledge collaborator is vector-backed when embeddings are
	// configured; otherwise every proposal is accepted as-is.
	var collaborator knowledge.Collaborator = knowledge.AcceptAll{}
	var vector *knowledge.VectorCollaborator
	if embedder != nil {
		vector, err = knowledge.NewVectorCollaborator(embedder)
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("creating knowledge store: %w", err)
		}
		if err := vector.Load(cfg.DataDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load knowledge store from %s: %v\n",
				cfg.DataDir, err)
		}
		collaborator = vector
	}

	reg := capability.NewRegistry()
	orch := orchestrator.New(generator.New(reg, provider, cfg.Model), orchestrator.Options{
		MaxConcurrency:    cfg.Orchestrator.MaxConcurrency,
		CapabilityTimeout: time.Duration(cfg.Orchestrator.CapabilityTimeoutSeconds) * time.Second,
		MaxRetries:        cfg.Orchestrator.MaxRetries,
		RetryBackoff:      time.Duration(cfg.Orchestrator.RetryBackoffMS) * time.Millisecond,
		OnProgress:        onProgress,
	})
	renderer, err := render.New()
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("building renderer: %w", err)
	}

	notifier := conversation.NewNotifier()
	eng := engine.New(
		reg,
		interpreter.New(reg.RequiredUnion()),
		router.New(reg, cfg.Router.Threshold),
		orch,
		conversation.NewStore(database, notifier),
		knowledge.NewProposer(knowledge.NewStore(database), collaborator),
		notifier,
		renderer,
	)

	cleanup := func() {
		if vector != nil {
			if err := vector.Persist(cfg.DataDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: persisting knowledge store: %v\n", err)
			}
		}
		database.Close()
	}
	return eng, cleanup, nil
}
