package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"faqbot/config"
	"faqbot/internal/adapter/cache"
	"faqbot/internal/adapter/chunker"
	"faqbot/internal/adapter/embedding"
	"faqbot/internal/adapter/fs"
	"faqbot/internal/adapter/history"
	"faqbot/internal/adapter/llm"
	"faqbot/internal/adapter/loader"
	"faqbot/internal/adapter/router"
	"faqbot/internal/adapter/store"
	"faqbot/internal/adapter/suggest"
	"faqbot/internal/port"
	"faqbot/internal/usecase"
)

// app holds the components shared by the commands.
type app struct {
	cfg       *config.Config
	embedder  *embedding.FallbackEmbedder
	store     port.VectorStore
	router    *router.Router
	generator *usecase.Generator
	history   *history.Store
	session   *usecase.ChatSession
	ingest    *usecase.IngestUseCase
}

// buildOptions selects which parts of the app a command needs.
type buildOptions struct {
	chat   bool // chat model, history and session
	ensure bool // ingest empty collections before returning
}

// buildApp wires the configured embedder, store and chat model. Missing
// configuration is fatal.
func buildApp(ctx context.Context, opts buildOptions) (*app, error) {
	cfg := GetConfig()

	validate := cfg.ValidateStore
	if opts.chat {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		embedder: embedding.Select(ctx, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.APIKeyEnv, cfg.Embedding.BaseURL),
		router:   router.New(cfg.Router.PatentKeywords, cfg.Router.BISKeywords),
	}

	cached := cache.NewCachedEmbedder(a.embedder, cache.NewEmbeddingCache())
	st, err := newStore(ctx, cfg, cached)
	if err != nil {
		return nil, err
	}
	a.store = st

	snapshot := ""
	if isLocal(cfg) {
		snapshot = resolve(cfg.SnapshotPath())
	}
	a.ingest = usecase.NewIngestUseCase(
		st,
		loader.NewPDFLoader(),
		chunker.NewWordChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap),
		fs.NewWalker(nil, cfg.Ingest.Excludes),
		snapshot,
	)

	genCfg := usecase.GenerationConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		TopK:        cfg.Retrieval.TopK,
	}

	var model port.ChatModel
	if opts.chat {
		model, err = llm.New(llm.Config{
			Provider:  cfg.LLM.Provider,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			BaseURL:   cfg.LLM.BaseURL,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
	}
	a.generator = usecase.NewGenerator(st, model, genCfg)

	if opts.chat {
		a.history = history.New(resolve(cfg.History.Path), cfg.History.MaxTurns)
		a.session = usecase.NewChatSession(a.router, a.generator, a.history, suggest.NewStaticSuggester())
	}

	if opts.ensure && cfg.Ingest.OnStartup {
		if err := a.ingest.EnsureCollections(ctx, a.sources()); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to ingest documents: %w", err)
		}
	}

	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// sources returns the configured document paths, resolved against the root
// directory.
func (a *app) sources() map[string][]string {
	out := make(map[string][]string)
	for name, paths := range a.cfg.Ingest.Sources() {
		resolved := make([]string, len(paths))
		for i, p := range paths {
			resolved[i] = resolve(p)
		}
		out[name] = resolved
	}
	return out
}

func newStore(ctx context.Context, cfg *config.Config, embedder *cache.CachedEmbedder) (port.VectorStore, error) {
	vs := cfg.VectorStore
	opts := []store.Option{
		store.WithBatchSize(vs.BatchSize),
		store.WithBatchPause(vs.BatchPause()),
	}

	switch vs.Backend {
	case config.BackendQdrant:
		st, err := store.NewQdrantStore(store.QdrantConfig{
			Host:       os.Getenv(vs.EnvironmentEnv),
			Port:       vs.Port,
			APIKey:     os.Getenv(vs.APIKeyEnv),
			Index:      os.Getenv(vs.IndexNameEnv),
			ReadyDelay: vs.ReadyDelay(),
		}, embedder, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		return st, nil

	case config.BackendPostgres:
		st, err := store.NewPostgresStore(ctx, os.Getenv(vs.DSNEnv), vs.Table, embedder, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return st, nil

	default:
		st := store.NewLocalStore(embedder, opts...)
		if err := loadSnapshot(st, resolve(cfg.SnapshotPath()), embedder.Dimension()); err != nil {
			return nil, err
		}
		return st, nil
	}
}

// loadSnapshot restores the local store when a usable snapshot exists.
func loadSnapshot(st *store.LocalStore, path string, dimension int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	check, err := store.CheckSnapshot(path, dimension)
	if err != nil {
		return fmt.Errorf("failed to check snapshot: %w", err)
	}
	if !check.Exists {
		return nil
	}
	if check.NeedsRebuild {
		slog.Warn("snapshot does not match the embedder, collections will be rebuilt", "path", path, "reason", check.Reason)
		return nil
	}

	if err := st.Load(path); err != nil && !errors.Is(err, store.ErrDimensionMismatch) {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	slog.Debug("loaded snapshot", "path", path, "collections", st.Collections())
	return nil
}

func isLocal(cfg *config.Config) bool {
	return cfg.VectorStore.Backend == config.BackendLocal || cfg.VectorStore.Backend == ""
}

// resolve makes a relative path relative to the root directory.
func resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetRootDir(), path)
}
