package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	Unsupported    bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// SchemaVersion reads the schema version of the collection. A missing
// collection reports version 0.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(s.collection)
		if root == nil {
			return nil
		}
		meta := root.Bucket(bucketMeta)
		if meta == nil {
			return nil
		}
		data := meta.Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

// CheckMigration checks if migration is needed.
func (s *BoltStore) CheckMigration() (*MigrationResult, error) {
	version, err := s.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	result := &MigrationResult{
		OldVersion: version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing collection"
	case version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", version, CurrentSchemaVersion)
	case version > CurrentSchemaVersion:
		result.Unsupported = true
		result.Reason = fmt.Sprintf("collection created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}

	return result, nil
}

// Migrate creates the collection if absent and runs pending migrations.
func (s *BoltStore) Migrate() error {
	result, err := s.CheckMigration()
	if err != nil {
		return err
	}
	if result.Unsupported {
		return fmt.Errorf("cannot open collection %s: %s", s.collection, result.Reason)
	}
	if !result.NeedsMigration {
		return nil
	}

	for v := result.OldVersion; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}
	return nil
}

// runMigration runs a specific version migration.
func (s *BoltStore) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		return s.db.Update(func(tx *bbolt.Tx) error {
			root, err := tx.CreateBucketIfNotExists(s.collection)
			if err != nil {
				return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
			}
			for _, name := range [][]byte{bucketChunks, bucketMeta} {
				if _, err := root.CreateBucketIfNotExists(name); err != nil {
					return fmt.Errorf("failed to create bucket %s: %w", name, err)
				}
			}
			data, err := json.Marshal(to)
			if err != nil {
				return err
			}
			return root.Bucket(bucketMeta).Put(keySchemaVersion, data)
		})
	default:
		return nil
	}
}
