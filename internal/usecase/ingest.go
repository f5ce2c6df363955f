package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"byelaws/internal/domain"
	"byelaws/internal/logger"
	"byelaws/internal/port"
)

// embedBatchSize bounds how many page texts are sent per embedding call.
const embedBatchSize = 16

// IngestUseCase populates an empty chunk store from the source document.
type IngestUseCase struct {
	store     port.ChunkStore
	extractor port.PageExtractor
	embedder  port.Embedder

	// OnProgress, if set, is called after each batch of chunks is embedded.
	OnProgress func(done, total int)
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	store port.ChunkStore,
	extractor port.PageExtractor,
	embedder port.Embedder,
) *IngestUseCase {
	return &IngestUseCase{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
	}
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	Skipped  bool // store already held chunks
	Existing int  // chunk count found when skipped
	Pages    int  // pages extracted, including empty ones
	Chunks   int  // chunks stored
	Duration time.Duration
}

// Ingest loads doc into the store if, and only if, the store is empty. The
// emptiness check happens before the document is touched.
func (u *IngestUseCase) Ingest(ctx context.Context, doc domain.Document) (*IngestResult, error) {
	start := time.Now()

	empty, err := u.store.IsEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check store: %w", err)
	}
	if !empty {
		n, err := u.store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count chunks: %w", err)
		}
		logger.Debug("store already holds %d chunks, skipping ingestion", n)
		return &IngestResult{Skipped: true, Existing: n, Duration: time.Since(start)}, nil
	}

	pages, err := u.extractor.Pages(ctx, doc.Path)
	if err != nil {
		return nil, err
	}

	chunks := BuildChunks(pages)
	result := &IngestResult{Pages: len(pages)}
	logger.Debug("extracted %d pages, %d with text", len(pages), len(chunks))

	// Every chunk is embedded before the first insert: a failed run leaves
	// the store empty.
	for i := 0; i < len(chunks); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %s..%s: %w", batch[0].ID, batch[len(batch)-1].ID, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(vectors), len(batch))
		}
		for j := range batch {
			batch[j].Embedding = vectors[j]
		}

		if u.OnProgress != nil {
			u.OnProgress(end, len(chunks))
		}
	}

	if err := u.addAll(ctx, chunks); err != nil {
		return nil, err
	}
	result.Chunks = len(chunks)

	info := domain.IndexInfo{
		SourcePath:     doc.Path,
		Fingerprint:    doc.Fingerprint,
		EmbeddingModel: u.embedder.ModelName(),
		Chunks:         result.Chunks,
		IngestedAt:     time.Now().UTC(),
	}
	if err := u.store.SetInfo(ctx, info); err != nil {
		return nil, fmt.Errorf("failed to record index info: %w", err)
	}

	result.Duration = time.Since(start)
	logger.Info("Processed %d chunks from PDF.", result.Chunks)
	return result, nil
}

// addAll stores chunks in one transaction when the store supports it.
func (u *IngestUseCase) addAll(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if b, ok := u.store.(port.BatchAdder); ok {
		if err := b.AddBatch(ctx, chunks); err != nil {
			return fmt.Errorf("failed to store chunks: %w", err)
		}
		return nil
	}
	for _, c := range chunks {
		if err := u.store.Add(ctx, c); err != nil {
			return fmt.Errorf("failed to store %s: %w", c.ID, err)
		}
	}
	return nil
}

// BuildChunks drops pages whose text is empty or whitespace-only and numbers
// the rest chunk_0, chunk_1, ... in document order. Page text is kept as
// extracted.
func BuildChunks(pages []domain.Page) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:   domain.ChunkID(len(chunks)),
			Text: p.Text,
			Page: p.Number,
		})
	}
	return chunks
}
