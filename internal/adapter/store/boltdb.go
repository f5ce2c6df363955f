package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"byelaws/internal/domain"
	"byelaws/internal/port"
)

var (
	_ port.ChunkStore = (*BoltStore)(nil)
	_ port.BatchAdder = (*BoltStore)(nil)
)

var (
	bucketChunks = []byte("chunks")
	bucketMeta   = []byte("meta")
	keyIndexInfo = []byte("index_info")
)

// BoltStore is a persistent chunk store. Each collection is a top-level bucket
// holding a chunks bucket and a meta bucket. Vectors are cached in memory and
// searched by brute force.
type BoltStore struct {
	db         *bbolt.DB
	collection []byte
	dimension  int

	mu     sync.RWMutex
	chunks []domain.Chunk
}

type storedChunk struct {
	Text   string    `json:"t"`
	Page   int       `json:"p,omitempty"`
	Vector []float32 `json:"v"`
}

// NewBoltStore opens (or creates) the collection in the bolt file at path.
// A dimension of 0 disables the dimension check.
func NewBoltStore(path, collection string, dimension int) (*BoltStore, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	s := &BoltStore{
		db:         db,
		collection: []byte(collection),
		dimension:  dimension,
	}

	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.loadChunks(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	return s, nil
}

func (s *BoltStore) bucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	root := tx.Bucket(s.collection)
	if root == nil {
		return nil, fmt.Errorf("collection %s not found", s.collection)
	}
	b := root.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found in collection %s", name, s.collection)
	}
	return b, nil
}

// loadChunks loads all chunks from BoltDB into memory.
func (s *BoltStore) loadChunks() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, bucketChunks)
		if err != nil {
			return err
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt chunk %s: %w", k, err)
			}
			s.chunks = append(s.chunks, domain.Chunk{
				ID:        string(k),
				Text:      stored.Text,
				Page:      stored.Page,
				Embedding: stored.Vector,
			})
			return nil
		})
	})
}

func (s *BoltStore) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	return n == 0, err
}

func (s *BoltStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *BoltStore) Add(ctx context.Context, chunk domain.Chunk) error {
	return s.AddBatch(ctx, []domain.Chunk{chunk})
}

// AddBatch inserts chunks in a single transaction. Either all of them are
// stored or none are.
func (s *BoltStore) AddBatch(ctx context.Context, chunks []domain.Chunk) error {
	for _, chunk := range chunks {
		if s.dimension > 0 && len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(chunk.Embedding))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, bucketChunks)
		if err != nil {
			return err
		}

		for _, chunk := range chunks {
			if b.Get([]byte(chunk.ID)) != nil {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateChunk, chunk.ID)
			}

			data, err := json.Marshal(storedChunk{
				Text:   chunk.Text,
				Page:   chunk.Page,
				Vector: chunk.Embedding,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *BoltStore) Query(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	if s.dimension > 0 && len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(embedding))
	}

	return Nearest(embedding, s.chunks, k), nil
}

func (s *BoltStore) SetInfo(ctx context.Context, info domain.IndexInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, bucketMeta)
		if err != nil {
			return err
		}
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return b.Put(keyIndexInfo, data)
	})
}

func (s *BoltStore) Info(ctx context.Context) (domain.IndexInfo, error) {
	var info domain.IndexInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, bucketMeta)
		if err != nil {
			return err
		}
		data := b.Get(keyIndexInfo)
		if data == nil {
			return domain.ErrNotFound
		}
		return json.Unmarshal(data, &info)
	})
	return info, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
