package usecase

import (
	"context"
	"fmt"
	"strings"

	"byelaws/internal/domain"
	"byelaws/internal/port"
)

// TopK is the number of chunks attached to every question.
const TopK = 3

var _ port.ContextRetriever = (*RetrieveUseCase)(nil)

// RetrieveUseCase finds the chunks nearest to a question.
type RetrieveUseCase struct {
	embedder port.Embedder
	store    port.ChunkStore
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(embedder port.Embedder, store port.ChunkStore) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve returns up to TopK chunks ordered by ascending distance. The
// question is embedded as-is, empty or not.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, question string) ([]domain.ScoredChunk, error) {
	vectors, err := u.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 question", domain.ErrEmbedding, len(vectors))
	}

	results, err := u.store.Query(ctx, vectors[0], TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to query store: %w", err)
	}
	return results, nil
}

// RetrieveContext joins the retrieved texts with single spaces, or returns
// domain.NoContextFound when nothing was retrieved.
func (u *RetrieveUseCase) RetrieveContext(ctx context.Context, question string) (string, error) {
	results, err := u.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	return JoinContext(results), nil
}

// JoinContext renders retrieved chunks as a single context string.
func JoinContext(results []domain.ScoredChunk) string {
	if len(results) == 0 {
		return domain.NoContextFound
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, " ")
}
