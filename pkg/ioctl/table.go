package ioctl

import (
	"context"
	"fmt"
	"sort"

	deverrors "github.com/devkit-go/devkit/pkg/device/errors"
)

// Handler services one command. The state argument is the driver's opaque
// per-open state returned by its Open handler. The arg view is sized to
// the request's declared payload: read-only when the payload flows caller
// to driver only, writable otherwise. DirNone commands receive an empty
// zero-length view, never nil.
//
// Validation failures of payload values belong here and are returned as
// InvalidArgument; range violations never reach a handler because the
// dispatcher checks bounds first.
type Handler func(ctx context.Context, state any, arg *ArgBuffer) error

// tableKey scopes duplicate detection: two command definitions with the
// same (magic, number) within one driver conflict even when their
// direction or size differ.
type tableKey struct {
	magic uint32
	nr    uint8
}

type tableEntry struct {
	req Request
	fn  Handler
}

// Table is a per-driver mapping from requests to handlers. Adding a
// command means inserting an entry, never editing a dispatch function.
//
// Tables are built once at driver construction and read-only afterwards,
// so lookups need no locking.
type Table struct {
	entries map[tableKey]tableEntry
}

// NewTable creates an empty command table.
func NewTable() *Table {
	return &Table{entries: make(map[tableKey]tableEntry)}
}

// Handle registers fn for req.
//
// Returns DuplicateCommand when a command with the same (magic, number)
// is already registered, and the request's own encode error when it does
// not fit the wire layout. A nil handler is rejected.
func (t *Table) Handle(req Request, fn Handler) error {
	if fn == nil {
		return fmt.Errorf("cannot register nil handler for command (magic %#x, nr %d)", req.Magic, req.Nr)
	}
	if _, err := req.Encode(); err != nil {
		return err
	}
	key := tableKey{magic: req.Magic, nr: req.Nr}
	if _, exists := t.entries[key]; exists {
		return deverrors.NewDuplicateCommandError(uint8(req.Magic), req.Nr)
	}
	t.entries[key] = tableEntry{req: req, fn: fn}
	return nil
}

// Lookup resolves req to its handler. The match is exact on all four
// fields: a request with the right (magic, number) but a different
// direction or size is not a hit.
func (t *Table) Lookup(req Request) (Handler, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.entries[tableKey{magic: req.Magic, nr: req.Nr}]
	if !ok || e.req != req {
		return nil, false
	}
	return e.fn, true
}

// Len returns the number of registered commands.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Requests returns all registered requests sorted by (magic, number).
// The returned slice is a copy and safe to modify.
func (t *Table) Requests() []Request {
	if t == nil {
		return nil
	}
	reqs := make([]Request, 0, len(t.entries))
	for _, e := range t.entries {
		reqs = append(reqs, e.req)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Magic != reqs[j].Magic {
			return reqs[i].Magic < reqs[j].Magic
		}
		return reqs[i].Nr < reqs[j].Nr
	})
	return reqs
}
