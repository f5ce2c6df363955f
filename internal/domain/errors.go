package domain

import "errors"

// NoContextFound is used as the retrieval context when the store returns no chunks.
const NoContextFound = "No relevant context found."

var (
	// ErrIngestion indicates the source document could not be opened or read.
	// It is fatal at startup.
	ErrIngestion = errors.New("ingestion failed")

	// ErrDuplicateChunk indicates a chunk identifier is already stored.
	ErrDuplicateChunk = errors.New("duplicate chunk")

	// ErrEmbedding indicates the embedding provider could not embed the input.
	ErrEmbedding = errors.New("embedding failed")

	// ErrSynthesis indicates the generative model call failed.
	ErrSynthesis = errors.New("synthesis failed")

	// ErrDimensionMismatch indicates a vector does not fit the store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
)
