// ABOUTME: Badger KV client for registry storage.
// ABOUTME: Type-prefixed keys with JSON values, like an object store.
package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v3"
)

// Key prefixes per collection. A record's key is its prefix plus its
// primary key, so point lookups and full scans are both prefix ops.
const (
	patientPrefix      = "patient:"
	visitPrefix        = "visit:"
	interventionPrefix = "intervention:"
	metaPrefix         = "meta:"
)

// Store is a Badger-backed Repository implementation.
type Store struct {
	db *badger.DB
}

// Open opens or creates a Badger store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create kv directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logging is noise for a CLI
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	return &Store{db: db}, nil
}

// Dir returns the Badger directory under a registry data directory.
// Every caller that opens the store derives the path from here.
func Dir(dataDir string) string {
	return filepath.Join(dataDir, "badger")
}

// Close closes the underlying Badger database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// set stores a value under key, replacing any prior value.
func (s *Store) set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// get returns the value for key, or (nil, false) if absent.
func (s *Store) get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// delete removes a key. Missing keys are not an error.
func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// scan returns every value whose key carries the given prefix.
func (s *Store) scan(prefix string) ([][]byte, error) {
	var results [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			results = append(results, val)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// marshalJSON is a helper to marshal record values.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON is a helper to unmarshal record values.
func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
