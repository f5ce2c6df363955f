package domain

import (
	"fmt"
	"time"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "byelaws"

// Document is the source file a collection is built from.
type Document struct {
	Path        string
	Fingerprint string
}

// IndexInfo records what a collection was built from.
type IndexInfo struct {
	SourcePath     string    `json:"source_path"`
	Fingerprint    string    `json:"fingerprint"`
	EmbeddingModel string    `json:"embedding_model"`
	Chunks         int       `json:"chunks"`
	IngestedAt     time.Time `json:"ingested_at"`
}

// Page is the text extracted from one page of the source document.
// Number is 1-based and refers to the original page order.
type Page struct {
	Number int
	Text   string
}

// Chunk is one non-empty page stored with its embedding.
type Chunk struct {
	ID        string
	Text      string
	Page      int
	Embedding []float32
}

// ScoredChunk is a query hit. Distance is cosine distance (lower is closer).
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// ChunkID returns the identifier for the i-th non-empty page.
func ChunkID(i int) string {
	return fmt.Sprintf("chunk_%d", i)
}
