// Package badger provides the BadgerDB-backed binding store.
package badger

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/devkit-go/devkit/pkg/binding/store"
	"github.com/devkit-go/devkit/pkg/device"
)

// Key namespace: bindings live under the "b:" prefix with the node's
// identity in the key, one record per node:
//
//	b:<kind>:<major>:<minor>  ->  store.Record (JSON)
const prefixBinding = "b:"

func keyBinding(n device.Node) []byte {
	return []byte(fmt.Sprintf("%s%s:%d:%d", prefixBinding, n.Kind, n.Major, n.Minor))
}

// Store is a BadgerDB-backed binding store.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the binding database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open binding store at %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Put upserts the record for its node.
func (s *Store) Put(ctx context.Context, rec store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode binding: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyBinding(rec.Node), val); err != nil {
			return fmt.Errorf("failed to store binding: %w", err)
		}
		return nil
	})
}

// Delete removes the record for node. Idempotent.
func (s *Store) Delete(ctx context.Context, node device.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(keyBinding(node))
		if err != nil && err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to delete binding: %w", err)
		}
		return nil
	})
}

// List returns all persisted records via a prefix scan.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := []store.Record{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixBinding)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec store.Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to decode binding: %w", err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}

	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
