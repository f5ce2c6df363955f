package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"byelaws/internal/domain"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	st, err := NewStore(path, "byelaws", 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

func TestStoreEmptyQuery(t *testing.T) {
	st := newTestStore(t, filepath.Join(t.TempDir(), "index.sqlite"))
	defer st.Close()
	ctx := context.Background()

	empty, err := st.IsEmpty(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("expected empty store")
	}

	results, err := st.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestStoreAddQueryDuplicate(t *testing.T) {
	st := newTestStore(t, filepath.Join(t.TempDir(), "index.sqlite"))
	defer st.Close()
	ctx := context.Background()

	if err := st.Add(ctx, domain.Chunk{ID: "chunk_0", Text: "pets", Page: 1, Embedding: []float32{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := st.Add(ctx, domain.Chunk{ID: "chunk_1", Text: "drilling", Page: 2, Embedding: []float32{0, 1}}); err != nil {
		t.Fatal(err)
	}

	err := st.Add(ctx, domain.Chunk{ID: "chunk_1", Text: "other", Embedding: []float32{0, 1}})
	if !errors.Is(err, domain.ErrDuplicateChunk) {
		t.Fatalf("expected ErrDuplicateChunk, got %v", err)
	}

	results, err := st.Query(ctx, []float32{0.1, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "chunk_1" || results[0].Chunk.Text != "drilling" || results[0].Chunk.Page != 2 {
		t.Errorf("unexpected first result: %+v", results[0].Chunk)
	}
}

func TestStoreAddBatchRollsBack(t *testing.T) {
	st := newTestStore(t, filepath.Join(t.TempDir(), "index.sqlite"))
	defer st.Close()
	ctx := context.Background()

	if err := st.Add(ctx, domain.Chunk{ID: "chunk_1", Text: "existing", Embedding: []float32{0, 1}}); err != nil {
		t.Fatal(err)
	}

	batch := []domain.Chunk{
		{ID: "chunk_0", Text: "new", Embedding: []float32{1, 0}},
		{ID: "chunk_1", Text: "clash", Embedding: []float32{1, 1}},
	}
	if err := st.AddBatch(ctx, batch); !errors.Is(err, domain.ErrDuplicateChunk) {
		t.Fatalf("expected ErrDuplicateChunk, got %v", err)
	}

	n, err := st.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected the failed batch to leave 1 chunk, got %d", n)
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	ctx := context.Background()

	st := newTestStore(t, path)
	if err := st.Add(ctx, domain.Chunk{ID: "chunk_0", Text: "pets", Embedding: []float32{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := st.SetInfo(ctx, domain.IndexInfo{Fingerprint: "abc", Chunks: 1}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st = newTestStore(t, path)
	defer st.Close()

	n, err := st.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 chunk after reopen, got %d", n)
	}
	info, err := st.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Fingerprint != "abc" {
		t.Errorf("expected fingerprint abc, got %s", info.Fingerprint)
	}
}

func TestStoreInfoNotFound(t *testing.T) {
	st := newTestStore(t, filepath.Join(t.TempDir(), "index.sqlite"))
	defer st.Close()

	if _, err := st.Info(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFloat32Bytes(t *testing.T) {
	in := []float32{0.5, -1.25, 3}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("expected %d floats, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: expected %f, got %f", i, in[i], out[i])
		}
	}
	if float32SliceToBytes(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
