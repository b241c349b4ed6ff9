package main

import (
	"fmt"

	"scangestor/internal/agent"
	"scangestor/internal/chunker"
	"scangestor/internal/classifier"
	"scangestor/internal/config"
	"scangestor/internal/domain"
	embopenai "scangestor/internal/embedding/openai"
	"scangestor/internal/ingest"
	llmopenai "scangestor/internal/llm/openai"
	"scangestor/internal/semantic"
	"scangestor/internal/service"
	"scangestor/internal/synth"
	"scangestor/internal/vectorstore"
	"scangestor/internal/vectorstore/memory"
	"scangestor/internal/vectorstore/qdrant"
	"scangestor/internal/vectorstore/sqlite"
)

// app owns the process-wide index handle shared by ingestion and querying.
type app struct {
	cfg     *config.AppConfig
	index   *vectorstore.Index
	chunker domain.Chunker
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	ch, err := newChunker(cfg)
	if err != nil {
		return nil, err
	}
	st, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, index: vectorstore.NewIndex(emb, st, 0), chunker: ch}, nil
}

func (a *app) Close() error { return a.index.Close() }

func loadConfig() (*config.AppConfig, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debug("config loaded", "path", path)
	return cfg, nil
}

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai", "":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return embopenai.NewClient(embopenai.Config{
			BaseURL:           oc.BaseURL,
			APIKeyEnv:         oc.APIKeyEnv,
			Model:             oc.Model,
			Timeout:           oc.Timeout(),
			RequestsPerSecond: oc.RequestsPerSecond,
			Logger:            logger,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newStorage(cfg *config.AppConfig) (vectorstore.Storage, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "sqlite", "":
		if vs.SQLite == nil {
			return nil, fmt.Errorf("sqlite config missing")
		}
		return sqlite.NewStorage(vs.SQLite.Path)
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if vs.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        vs.Qdrant.URL,
			APIKey:     vs.Qdrant.APIKey,
			Collection: vs.Qdrant.Collection,
			Timeout:    vs.Qdrant.Timeout(),
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", vs.Type)
	}
}

func newChunker(cfg *config.AppConfig) (domain.Chunker, error) {
	switch cfg.Chunker.Type {
	case "paragraph", "":
		return chunker.NewParagraphChunker(cfg.Chunker.MaxSize, cfg.Chunker.MinSize), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}
}

func newLLM(cfg *config.AppConfig) (domain.LLM, error) {
	switch cfg.LLM.Type {
	case "openai", "":
		oc := cfg.LLM.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai llm config missing")
		}
		return llmopenai.NewClient(llmopenai.Config{
			BaseURL:           oc.BaseURL,
			APIKeyEnv:         oc.APIKeyEnv,
			Model:             oc.Model,
			Temperature:       cfg.LLM.Temperature,
			Timeout:           oc.Timeout(),
			RequestsPerSecond: oc.RequestsPerSecond,
			Logger:            logger,
		})
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}
}

func (a *app) ingester() *ingest.Manager {
	return ingest.NewManager(a.index, a.chunker, ingest.Options{
		ExcludeSuffix: a.cfg.Docs.ExcludeSuffix,
		UpdateSuffix:  a.cfg.Docs.UpdateSuffix,
		Logger:        logger,
	})
}

func (a *app) orchestrator() (*service.Orchestrator, error) {
	llm, err := newLLM(a.cfg)
	if err != nil {
		return nil, err
	}
	oc := a.cfg.Orchestrator
	deps := agent.Deps{
		Searcher: semantic.NewSearcher(a.index, oc.TopK),
		LLM:      llm,
		DocsRoot: a.cfg.Docs.Root,
		Logger:   logger,
	}
	agents := agent.Set{
		Functional: agent.NewFunctional(deps),
		Technical:  agent.NewTechnical(deps, oc.SupportEmail),
		Management: agent.NewManagement(deps, oc.ManagementContact),
	}
	return service.NewOrchestrator(
		classifier.New(llm, logger),
		agents,
		synth.New(llm, logger),
		service.Options{AgentTimeout: oc.AgentTimeout(), Concurrent: oc.ConcurrentFanout, Logger: logger},
	), nil
}
