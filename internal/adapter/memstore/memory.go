package memstore

import (
	"context"
	"fmt"
	"sync"

	"byelaws/internal/adapter/store"
	"byelaws/internal/domain"
	"byelaws/internal/port"
)

var _ port.ChunkStore = (*MemoryStore)(nil)

// MemoryStore is a non-persistent chunk store. It is used for tests and for
// running against a throwaway index.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
	ids    map[string]struct{}
	info   *domain.IndexInfo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

func (s *MemoryStore) IsEmpty(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) == 0, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *MemoryStore) Add(ctx context.Context, chunk domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[chunk.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateChunk, chunk.ID)
	}
	s.ids[chunk.ID] = struct{}{}
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Nearest(embedding, s.chunks, k), nil
}

func (s *MemoryStore) SetInfo(ctx context.Context, info domain.IndexInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
	return nil
}

func (s *MemoryStore) Info(ctx context.Context) (domain.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return domain.IndexInfo{}, domain.ErrNotFound
	}
	return *s.info, nil
}

// IDs returns the stored chunk IDs in insertion order.
func (s *MemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.chunks))
	for i, c := range s.chunks {
		ids[i] = c.ID
	}
	return ids
}

func (s *MemoryStore) Close() error {
	return nil
}
