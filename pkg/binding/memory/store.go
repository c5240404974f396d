// Package memory provides an in-memory binding store, used by tests and
// by deployments that do not need bindings to survive restarts.
package memory

import (
	"context"
	"sync"

	"github.com/devkit-go/devkit/pkg/binding/store"
	"github.com/devkit-go/devkit/pkg/device"
)

// Store is an in-memory binding store.
type Store struct {
	mu      sync.Mutex
	records map[device.Node]store.Record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[device.Node]store.Record)}
}

// Put upserts the record for its node.
func (s *Store) Put(ctx context.Context, rec store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Node] = rec
	return nil
}

// Delete removes the record for node. Idempotent.
func (s *Store) Delete(ctx context.Context, node device.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, node)
	return nil
}

// List returns all records.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
