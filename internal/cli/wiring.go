package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"byelaws/config"
	"byelaws/internal/adapter/cache"
	"byelaws/internal/adapter/embedding"
	"byelaws/internal/adapter/extractor"
	"byelaws/internal/adapter/fs"
	"byelaws/internal/adapter/llm"
	"byelaws/internal/adapter/memstore"
	"byelaws/internal/adapter/sqlitestore"
	"byelaws/internal/adapter/store"
	"byelaws/internal/domain"
	"byelaws/internal/logger"
	"byelaws/internal/port"
	"byelaws/internal/usecase"
)

// pipeline holds the constructed dependencies for one command run.
type pipeline struct {
	cfg       *config.Config
	dir       string
	store     port.ChunkStore
	embedder  port.Embedder
	extractor port.PageExtractor
	llm       port.LLM
	doc       domain.Document
}

// newPipeline builds the embedder and store, and the LLM when withLLM is set.
// A configured embedding model that differs from the one the collection was
// built with is an error, since the vectors would not be comparable.
func newPipeline(ctx context.Context, cfg *config.Config, dir string, withLLM bool) (*pipeline, error) {
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	ex, err := extractor.New(cfg.Document.Extractor)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg, dir, emb.Dimension())
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk store: %w", err)
	}

	p := &pipeline{
		cfg:       cfg,
		dir:       dir,
		store:     st,
		embedder:  emb,
		extractor: ex,
		doc:       resolveDocument(cfg, dir),
	}

	if err := p.checkCompatibility(ctx); err != nil {
		st.Close()
		return nil, err
	}

	if withLLM {
		p.llm, err = llm.New(llm.Options{
			Provider:  cfg.LLM.Provider,
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			Timeout:   cfg.LLM.Timeout(),
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
	}

	return p, nil
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

// ingest runs the ingestion gate. It is a no-op on a populated store.
func (p *pipeline) ingest(ctx context.Context, onProgress func(done, total int)) (*usecase.IngestResult, error) {
	uc := usecase.NewIngestUseCase(p.store, p.extractor, p.embedder)
	uc.OnProgress = onProgress
	return uc.Ingest(ctx, p.doc)
}

func (p *pipeline) retriever() *usecase.RetrieveUseCase {
	return usecase.NewRetrieveUseCase(p.embedder, p.store)
}

func (p *pipeline) answerer() *usecase.AnswerUseCase {
	return usecase.NewAnswerUseCase(p.retriever(), p.llm)
}

func (p *pipeline) checkCompatibility(ctx context.Context) error {
	info, err := p.store.Info(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index info: %w", err)
	}
	if info.EmbeddingModel != "" && info.EmbeddingModel != p.embedder.ModelName() {
		return fmt.Errorf("collection %s was built with embedding model %s, but %s is configured; remove %s to rebuild",
			p.cfg.Store.Collection, info.EmbeddingModel, p.embedder.ModelName(), p.cfg.StorePath(p.dir))
	}
	return nil
}

// warnIfStale compares the stored fingerprint with the current document and
// reports chunks left without index info by an unfinished ingestion.
// The collection is never rebuilt automatically.
func (p *pipeline) warnIfStale(ctx context.Context) {
	info, err := p.store.Info(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		if n, _ := p.store.Count(ctx); n > 0 {
			logger.Warn("store holds %d chunks but no index info; a previous ingestion did not finish. Delete %s and restart to rebuild",
				n, p.cfg.StorePath(p.dir))
		}
		return
	}
	if err != nil || info.Fingerprint == "" || p.doc.Fingerprint == "" {
		return
	}
	if info.Fingerprint != p.doc.Fingerprint {
		logger.Warn("%s has changed since it was ingested on %s; answers use the old text until the store is rebuilt",
			p.doc.Path, info.IngestedAt.Format(time.RFC3339))
	}
}

// resolveDocument locates the configured document. Failure is not fatal here:
// a populated store never reads the document, and an empty one reports the
// missing file as an ingestion error.
func resolveDocument(cfg *config.Config, dir string) domain.Document {
	file, err := fs.Locate(dir, cfg.Document.Path)
	if err != nil {
		logger.Debug("could not locate document: %v", err)
		path := cfg.Document.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return domain.Document{Path: path}
	}

	doc := domain.Document{Path: file.Path}
	if doc.Fingerprint, err = fs.Fingerprint(file.Path); err != nil {
		logger.Debug("could not fingerprint %s: %v", file.Path, err)
	}
	return doc
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	opts := embedding.Options{
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   cfg.Embedding.Timeout(),
	}

	var embedder port.Embedder
	var err error

	switch cfg.Embedding.Provider {
	case "openai":
		embedder, err = embedding.NewOpenAIEmbedder(opts)
	case "jina":
		embedder, err = embedding.NewJinaEmbedder(opts)
	case "ollama":
		embedder, err = embedding.NewOllamaEmbedder(opts)
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Embedding.CacheSize > 0 {
		embedder = cache.NewCachedEmbedder(embedder, cache.NewEmbeddingCache(cfg.Embedding.CacheSize, 0))
	}
	return embedder, nil
}

func openStore(cfg *config.Config, dir string, dimension int) (port.ChunkStore, error) {
	if cfg.Store.Backend == "memory" {
		return memstore.NewMemoryStore(), nil
	}

	if err := cfg.EnsureStoreDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	path := cfg.StorePath(dir)

	switch cfg.Store.Backend {
	case "", "bolt":
		return store.NewBoltStore(path, cfg.Store.Collection, dimension)
	case "sqlite":
		return sqlitestore.NewStore(path, cfg.Store.Collection, dimension)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
