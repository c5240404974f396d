// Package binding maps device nodes to driver majors.
//
// Bindings are many-to-one: any number of nodes may share a major,
// distinguished by minor. The table is the hot-path resolver consulted on
// every open; a Store (see the store subpackage) can be attached as a
// write-through durability layer so bindings survive daemon restarts.
package binding

import (
	"context"
	"sync"
	"time"

	"github.com/devkit-go/devkit/pkg/device"
	deverrors "github.com/devkit-go/devkit/pkg/device/errors"
	"github.com/devkit-go/devkit/pkg/binding/store"
)

// Binding records one node-to-major association.
type Binding struct {
	Node    device.Node `json:"node"     yaml:"node"`
	Major   uint32      `json:"major"    yaml:"major"`
	BoundAt time.Time   `json:"bound_at" yaml:"bound_at"`
}

// Table is the in-memory binding resolver.
//
// Thread-safe under a reader/writer lock; resolves vastly outnumber binds,
// so readers never serialize against each other. The table references
// nodes, it does not own them - node creation belongs to the external
// node-creation facility.
type Table struct {
	mu       sync.RWMutex
	bindings map[device.Node]Binding
	store    store.Store // optional write-through persistence
}

// NewTable creates an empty binding table with no persistence.
func NewTable() *Table {
	return &Table{bindings: make(map[device.Node]Binding)}
}

// NewTableWithStore creates a binding table backed by st and loads all
// persisted bindings into memory.
func NewTableWithStore(ctx context.Context, st store.Store) (*Table, error) {
	t := &Table{
		bindings: make(map[device.Node]Binding),
		store:    st,
	}
	persisted, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range persisted {
		t.bindings[device.Node{Kind: b.Node.Kind, Major: b.Node.Major, Minor: b.Node.Minor}] = Binding{
			Node:    b.Node,
			Major:   b.Major,
			BoundAt: b.BoundAt,
		}
	}
	return t, nil
}

// Bind records the association of node to major.
//
// Returns InvalidNode when the node kind is unsupported. There is no
// uniqueness constraint on the major side: many nodes may bind one major.
// Rebinding an already-bound node replaces the association.
func (t *Table) Bind(ctx context.Context, node device.Node, major uint32) error {
	if !node.Kind.Valid() {
		return deverrors.NewInvalidNodeError("unsupported node kind")
	}

	b := Binding{Node: node, Major: major, BoundAt: time.Now()}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Put(ctx, store.Record{Node: node, Major: major, BoundAt: b.BoundAt}); err != nil {
			return err
		}
	}
	t.bindings[node] = b
	return nil
}

// Resolve returns the major bound to node, or NotBound.
func (t *Table) Resolve(node device.Node) (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b, exists := t.bindings[node]
	if !exists {
		return 0, deverrors.NewNotBoundError(node.String())
	}
	return b.Major, nil
}

// Unbind removes the association for node. Returns NotBound when the node
// has no binding.
func (t *Table) Unbind(ctx context.Context, node device.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.bindings[node]; !exists {
		return deverrors.NewNotBoundError(node.String())
	}
	if t.store != nil {
		if err := t.store.Delete(ctx, node); err != nil {
			return err
		}
	}
	delete(t.bindings, node)
	return nil
}

// List returns all bindings. The returned slice is a copy and safe to
// modify.
func (t *Table) List() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, b)
	}
	return out
}

// ListByMajor returns all bindings referencing major.
func (t *Table) ListByMajor(major uint32) []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Binding
	for _, b := range t.bindings {
		if b.Major == major {
			out = append(out, b)
		}
	}
	return out
}

// Count returns the number of bindings.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bindings)
}
