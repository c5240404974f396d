package ioctl

import (
	"encoding/binary"

	deverrors "github.com/devkit-go/devkit/pkg/device/errors"
)

// ArgBuffer is a bounds-checked view over the caller-supplied argument
// region of an ioctl. Every read and write validates its range before
// touching the underlying bytes, and a view can never be constructed over
// a region shorter than the declared payload size.
//
// The dispatcher hands write-direction payloads to the driver as a
// read-only view; attempting to mutate one returns Fault rather than
// corrupting caller memory semantics.
//
// Scalar accessors use little-endian byte order, matching the historical
// in-memory layout of command payload structs.
type ArgBuffer struct {
	data     []byte
	writable bool
}

// NewArgBuffer constructs a writable view of exactly size bytes over buf.
//
// Returns Fault when buf is shorter than size. The view aliases buf: bytes
// written through the view land in buf directly.
func NewArgBuffer(buf []byte, size int) (*ArgBuffer, error) {
	if size < 0 || len(buf) < size {
		return nil, deverrors.NewFaultError(size, len(buf))
	}
	return &ArgBuffer{data: buf[:size], writable: true}, nil
}

// NewReadOnlyArgBuffer constructs a read-only view of exactly size bytes
// over buf. Returns Fault when buf is shorter than size.
func NewReadOnlyArgBuffer(buf []byte, size int) (*ArgBuffer, error) {
	ab, err := NewArgBuffer(buf, size)
	if err != nil {
		return nil, err
	}
	ab.writable = false
	return ab, nil
}

// Len returns the view's payload size in bytes.
func (a *ArgBuffer) Len() int {
	return len(a.data)
}

// Writable reports whether writes through the view are permitted.
func (a *ArgBuffer) Writable() bool {
	return a.writable
}

func (a *ArgBuffer) checkRange(off, n int) error {
	if off < 0 || n < 0 || off+n > len(a.data) {
		return deverrors.NewFaultError(off+n, len(a.data))
	}
	return nil
}

// ReadBytes copies n bytes starting at off into a fresh slice.
func (a *ArgBuffer) ReadBytes(off, n int) ([]byte, error) {
	if err := a.checkRange(off, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, a.data[off:off+n])
	return out, nil
}

// WriteBytes copies p into the view starting at off.
func (a *ArgBuffer) WriteBytes(off int, p []byte) error {
	if !a.writable {
		return deverrors.NewFaultError(len(p), 0)
	}
	if err := a.checkRange(off, len(p)); err != nil {
		return err
	}
	copy(a.data[off:], p)
	return nil
}

// Uint32 reads a little-endian uint32 at off.
func (a *ArgBuffer) Uint32(off int) (uint32, error) {
	if err := a.checkRange(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(a.data[off:]), nil
}

// PutUint32 writes a little-endian uint32 at off.
func (a *ArgBuffer) PutUint32(off int, v uint32) error {
	if !a.writable {
		return deverrors.NewFaultError(4, 0)
	}
	if err := a.checkRange(off, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(a.data[off:], v)
	return nil
}

// Int32 reads a little-endian int32 at off.
func (a *ArgBuffer) Int32(off int) (int32, error) {
	v, err := a.Uint32(off)
	return int32(v), err
}

// PutInt32 writes a little-endian int32 at off.
func (a *ArgBuffer) PutInt32(off int, v int32) error {
	return a.PutUint32(off, uint32(v))
}

// Uint64 reads a little-endian uint64 at off.
func (a *ArgBuffer) Uint64(off int) (uint64, error) {
	if err := a.checkRange(off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(a.data[off:]), nil
}

// PutUint64 writes a little-endian uint64 at off.
func (a *ArgBuffer) PutUint64(off int, v uint64) error {
	if !a.writable {
		return deverrors.NewFaultError(8, 0)
	}
	if err := a.checkRange(off, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(a.data[off:], v)
	return nil
}
