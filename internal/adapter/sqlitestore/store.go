// Package sqlitestore provides a chunk store backed by SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"byelaws/internal/adapter/sqlitestore/migrations"
	"byelaws/internal/adapter/store"
	"byelaws/internal/domain"
	"byelaws/internal/port"
)

// Ensure Store implements the interface.
var (
	_ port.ChunkStore = (*Store)(nil)
	_ port.BatchAdder = (*Store)(nil)
)

// Store keeps chunks of one collection in a SQLite database. Several
// collections may share a database file.
type Store struct {
	db         *sql.DB
	collection string
	dimension  int
}

// NewStore opens the database at path and runs pending migrations.
// A dimension of 0 disables the dimension check.
func NewStore(path, collection string, dimension int) (*Store, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		collection: collection,
		dimension:  dimension,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	return n == 0, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE collection = ?", s.collection)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

func (s *Store) Add(ctx context.Context, chunk domain.Chunk) error {
	return s.AddBatch(ctx, []domain.Chunk{chunk})
}

// AddBatch inserts chunks in one transaction. A duplicate ID rolls back the
// whole batch.
func (s *Store) AddBatch(ctx context.Context, chunks []domain.Chunk) error {
	for _, chunk := range chunks {
		if s.dimension > 0 && len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(chunk.Embedding))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, chunk := range chunks {
		var exists int
		err = tx.QueryRowContext(ctx,
			"SELECT 1 FROM chunks WHERE collection = ? AND id = ?", s.collection, chunk.ID,
		).Scan(&exists)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateChunk, chunk.ID)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking chunk %s: %w", chunk.ID, err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO chunks (collection, id, text, page, embedding) VALUES (?, ?, ?, ?, ?)",
			s.collection, chunk.ID, chunk.Text, chunk.Page, float32SliceToBytes(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, page, embedding FROM chunks WHERE collection = ?", s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Text, &c.Page, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(blob)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	if len(chunks) > 0 && s.dimension > 0 && len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(embedding))
	}

	return store.Nearest(embedding, chunks, k), nil
}

func (s *Store) SetInfo(ctx context.Context, info domain.IndexInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshalling index info: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO index_info (collection, info) VALUES (?, ?)
		ON CONFLICT(collection) DO UPDATE SET info = excluded.info
	`, s.collection, string(data))
	if err != nil {
		return fmt.Errorf("saving index info: %w", err)
	}
	return nil
}

func (s *Store) Info(ctx context.Context) (domain.IndexInfo, error) {
	var info domain.IndexInfo
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT info FROM index_info WHERE collection = ?", s.collection).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return info, domain.ErrNotFound
	}
	if err != nil {
		return info, fmt.Errorf("loading index info: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return info, fmt.Errorf("decoding index info: %w", err)
	}
	return info, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
