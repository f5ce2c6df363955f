package port

import (
	"context"

	"byelaws/internal/domain"
)

// ChunkStore is the persistent vector index holding the document's chunks.
type ChunkStore interface {
	// IsEmpty reports whether the collection holds no chunks.
	IsEmpty(ctx context.Context) (bool, error)

	// Add inserts one chunk. It returns domain.ErrDuplicateChunk if the ID exists.
	Add(ctx context.Context, chunk domain.Chunk) error

	// Query returns up to k chunks nearest to embedding, closest first.
	// An empty store yields an empty slice and no error.
	Query(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// SetInfo records what the collection was built from.
	SetInfo(ctx context.Context, info domain.IndexInfo) error

	// Info returns the recorded index info, or domain.ErrNotFound.
	Info(ctx context.Context) (domain.IndexInfo, error)

	Close() error
}

// BatchAdder is implemented by stores that can insert many chunks atomically.
type BatchAdder interface {
	AddBatch(ctx context.Context, chunks []domain.Chunk) error
}
