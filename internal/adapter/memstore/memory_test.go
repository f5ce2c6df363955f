package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"byelaws/internal/domain"
)

func TestMemoryStoreAddQuery(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if empty, _ := st.IsEmpty(ctx); !empty {
		t.Fatal("expected empty store")
	}

	st.Add(ctx, domain.Chunk{ID: "chunk_0", Text: "a", Embedding: []float32{1, 0}})
	st.Add(ctx, domain.Chunk{ID: "chunk_1", Text: "b", Embedding: []float32{0, 1}})

	results, err := st.Query(ctx, []float32{0, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "chunk_1" {
		t.Errorf("expected chunk_1 first, got %s", results[0].Chunk.ID)
	}

	ids := st.IDs()
	if len(ids) != 2 || ids[0] != "chunk_0" || ids[1] != "chunk_1" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestMemoryStoreDuplicate(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.Add(ctx, domain.Chunk{ID: "chunk_0", Text: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Add(ctx, domain.Chunk{ID: "chunk_0", Text: "b"}); !errors.Is(err, domain.ErrDuplicateChunk) {
		t.Fatalf("expected ErrDuplicateChunk, got %v", err)
	}
}

func TestMemoryStoreConcurrentReads(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		st.Add(ctx, domain.Chunk{ID: domain.ChunkID(i), Embedding: []float32{float32(i), 1}})
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := st.Query(ctx, []float32{1, 1}, 3)
			if err != nil || len(results) != 3 {
				t.Errorf("unexpected query result: %v, %v", results, err)
			}
		}()
	}
	wg.Wait()
}

func TestMemoryStoreInfo(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.Info(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	st.SetInfo(ctx, domain.IndexInfo{Fingerprint: "f"})
	info, err := st.Info(ctx)
	if err != nil || info.Fingerprint != "f" {
		t.Errorf("unexpected info %+v, %v", info, err)
	}
}
