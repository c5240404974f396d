// Package store defines the persistence interface for device node
// bindings. Implementations live in sibling packages: badger for the
// durable on-disk store, memory for tests.
package store

import (
	"context"
	"time"

	"github.com/devkit-go/devkit/pkg/device"
)

// Record is the persisted form of one binding.
type Record struct {
	Node    device.Node `json:"node"`
	Major   uint32      `json:"major"`
	BoundAt time.Time   `json:"bound_at"`
}

// Store persists node bindings across daemon restarts.
//
// The binding table writes through to the store under its own lock, so
// implementations need only be safe for the concurrent calls a single
// table issues; they must not assume a single goroutine.
type Store interface {
	// Put upserts the record for its node.
	Put(ctx context.Context, rec Record) error

	// Delete removes the record for node. Idempotent: deleting an absent
	// node succeeds.
	Delete(ctx context.Context, node device.Node) error

	// List returns all persisted records.
	List(ctx context.Context) ([]Record, error)

	// Close releases store resources.
	Close() error
}
