// Package app wires every component of the review pipeline together by
// hand: given a loaded Config and a Logger, NewApp constructs the Symbol
// Extractor, Embedding Client, Vector Store, Platform Client, LLM Reviewer
// (if configured), analyzers, Fallback Generator, Comment Poster, optional
// run-history store, and the Orchestrator that drives them, in the donor's
// manual constructor-injection style rather than codegen.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/pr-warden/internal/analysis"
	"github.com/sevigo/pr-warden/internal/comment"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/db"
	"github.com/sevigo/pr-warden/internal/embedding"
	"github.com/sevigo/pr-warden/internal/extractor"
	"github.com/sevigo/pr-warden/internal/fallback"
	"github.com/sevigo/pr-warden/internal/history"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/orchestrator"
	"github.com/sevigo/pr-warden/internal/platform"
	"github.com/sevigo/pr-warden/internal/vectorstore"
)

const providerGemini = "gemini"

// App holds every constructed top-level component a CLI command needs.
// Commands in cmd/ read the fields directly: index builds an Indexer from
// Platform, Extractor, Embedder and Store; summarize reads History; review
// and summarize run the Orchestrator.
type App struct {
	Cfg    *config.Config
	Logger *slog.Logger

	Platform     platform.Client
	Extractor    extractor.Extractor
	Embedder     embedding.Client
	Store        vectorstore.Store
	Orchestrator *orchestrator.Orchestrator
	History      history.Store
}

// newOllamaHTTPClient mirrors the donor's longer-timeout Ollama transport:
// local model inference can run far longer than a typical API call budgets
// for.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: 15 * time.Minute}
}

// NewApp constructs every component of the pipeline. The returned cleanup
// func must be deferred by the caller; it closes the optional history
// database connection if one was opened.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reportPath string) (*App, func(), error) {
	logger.Info("initializing pr-warden",
		"llm_provider", cfg.AI.LLMProvider,
		"embedder_provider", cfg.AI.EmbedderProvider,
		"vector_store_backend", cfg.Pipeline.VectorStoreBackend,
	)

	platformClient, err := newPlatformClient(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}

	ex := extractor.New(logger.With("component", "extractor"))

	embedder, err := newEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}

	store := newVectorStore(cfg, logger)

	var reviewer llm.Reviewer
	if cfg.AI.GeminiAPIKey != "" || cfg.AI.LLMProvider == "ollama" {
		reviewer, err = newReviewer(ctx, cfg, logger)
		if err != nil {
			logger.Warn("llm reviewer unavailable, running in fallback-only mode", "error", err)
			reviewer = nil
		}
	} else {
		logger.Info("no LLM credential configured, running in fallback-only mode")
	}

	dup := analysis.NewDuplicateDetector(embedder, store, cfg.Pipeline.SimilarityThreshold)
	breaking := analysis.NewBreakingChangeDetector()

	archRules, err := analysis.LoadArchRules(".")
	if err != nil {
		logger.Debug("no per-repository architecture rules file, using defaults", "error", err)
	}
	archEngine := analysis.NewEngine(archRules)

	heuristics := analysis.HeuristicAnalyzers()
	fallbackGen := fallback.New(heuristics, archEngine)

	poster := comment.New(platformClient, logger.With("component", "comment"))

	var histStore history.Store
	var cleanup = func() {}
	if cfg.History.Enabled {
		database, dbCleanup, err := db.NewDatabase(&cfg.History)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to initialize run-history database: %w", err)
		}
		histStore = history.New(database)
		cleanup = dbCleanup
	}

	path := reportPath
	if path == "" {
		path = cfg.Pipeline.ReportPath
	}

	orch := orchestrator.New(
		platformClient, ex, embedder, store,
		dup, breaking, archEngine, heuristics,
		reviewer, fallbackGen, poster, histStore,
		path, logger.With("component", "orchestrator"),
	)

	return &App{
		Cfg:          cfg,
		Logger:       logger,
		Platform:     platformClient,
		Extractor:    ex,
		Embedder:     embedder,
		Store:        store,
		Orchestrator: orch,
		History:      histStore,
	}, cleanup, nil
}

// newPlatformClient picks a GitHub App installation client when app
// credentials are configured, otherwise a personal-access-token client,
// mirroring the donor's own auth precedence.
func newPlatformClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (platform.Client, error) {
	if cfg.GitHub.AppID != 0 {
		return platform.NewInstallationClient(ctx, cfg.GitHub.AppID, cfg.GitHub.InstallationID, cfg.GitHub.PrivateKeyPath, logger.With("component", "platform"))
	}
	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("no github authentication configured: set github.token or github.app_id")
	}
	if cfg.GitHub.EnterpriseURL != "" {
		return platform.NewPATEnterpriseClient(ctx, cfg.GitHub.Token, cfg.GitHub.EnterpriseURL, logger.With("component", "platform"))
	}
	return platform.NewPATClient(ctx, cfg.GitHub.Token, logger.With("component", "platform")), nil
}

// newEmbedder builds the Embedding Client: a remote goframe-backed embedder
// when a credential/host is usable, otherwise the deterministic hash
// fallback, matching the spec's "absent credential degrades to the hash
// projection" contract rather than failing the run.
func newEmbedder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embedding.Client, error) {
	const dim = 768

	switch cfg.AI.EmbedderProvider {
	case providerGemini:
		if cfg.AI.GeminiAPIKey == "" {
			logger.Warn("gemini embedder selected but no api key configured, falling back to hash embedder")
			return embedding.NewHash(dim), nil
		}
		geminiEmbedder, err := gemini.New(ctx,
			gemini.WithEmbeddingModel(cfg.AI.EmbedderModel),
			gemini.WithAPIKey(cfg.AI.GeminiAPIKey),
		)
		if err != nil {
			logger.Warn("failed to create gemini embedder, falling back to hash embedder", "error", err)
			return embedding.NewHash(dim), nil
		}
		emb, err := embeddings.NewEmbedder(geminiEmbedder)
		if err != nil {
			logger.Warn("failed to wrap gemini embedder, falling back to hash embedder", "error", err)
			return embedding.NewHash(dim), nil
		}
		return embedding.NewRemote(emb, dim), nil

	case "ollama":
		ollamaEmbedder, err := ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithModel(cfg.AI.EmbedderModel),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("failed to create ollama embedder, falling back to hash embedder", "error", err)
			return embedding.NewHash(dim), nil
		}
		emb, err := embeddings.NewEmbedder(ollamaEmbedder)
		if err != nil {
			logger.Warn("failed to wrap ollama embedder, falling back to hash embedder", "error", err)
			return embedding.NewHash(dim), nil
		}
		return embedding.NewRemote(emb, dim), nil

	default:
		logger.Warn("unknown embedder provider, using deterministic hash embedder", "provider", cfg.AI.EmbedderProvider)
		return embedding.NewHash(dim), nil
	}
}

// newReviewer constructs the goframe llms.Model for the configured provider
// and wraps it in the LLM Reviewer.
func newReviewer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Reviewer, error) {
	model, err := newModel(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	prompts, err := llm.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	return llm.NewReviewer(model, prompts, cfg.AI.LLMProvider, cfg.AI.InterRequestDelay, cfg.AI.MaxRetryAttempts, logger.With("component", "llm")), nil
}

func newModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	switch cfg.AI.LLMProvider {
	case providerGemini:
		if cfg.AI.GeminiAPIKey == "" {
			return nil, fmt.Errorf("ai.gemini_api_key is required for the gemini llm provider")
		}
		return gemini.New(ctx,
			gemini.WithModel(cfg.AI.GeneratorModel),
			gemini.WithAPIKey(cfg.AI.GeminiAPIKey),
		)
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithModel(cfg.AI.GeneratorModel),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.AI.LLMProvider)
	}
}

// newVectorStore builds the configured Vector Store backend. Only "file" is
// currently wired; an unrecognized backend degrades to it with a warning
// rather than failing startup (see DESIGN.md for why a Qdrant backend isn't
// implemented against this contract).
func newVectorStore(cfg *config.Config, logger *slog.Logger) vectorstore.Store {
	switch cfg.Pipeline.VectorStoreBackend {
	case "file", "":
		return vectorstore.NewFileStore(cfg.Pipeline.VectorStorePath)
	default:
		logger.Warn("unsupported vector store backend, using file backend", "backend", cfg.Pipeline.VectorStoreBackend)
		return vectorstore.NewFileStore(cfg.Pipeline.VectorStorePath)
	}
}
