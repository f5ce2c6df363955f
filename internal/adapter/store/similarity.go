package store

import (
	"math"
	"sort"

	"byelaws/internal/domain"
)

// Nearest ranks chunks by cosine distance to query and returns up to k of them,
// closest first. Ties are broken by chunk ID so results are stable.
func Nearest(query []float32, chunks []domain.Chunk, k int) []domain.ScoredChunk {
	if k <= 0 || len(chunks) == 0 {
		return []domain.ScoredChunk{}
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		scored = append(scored, domain.ScoredChunk{
			Chunk:    c,
			Distance: CosineDistance(query, c.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// CosineDistance returns 1 - cosine similarity. Mismatched or zero vectors
// are treated as orthogonal.
func CosineDistance(a, b []float32) float64 {
	return 1 - cosineSimilarity(a, b)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
