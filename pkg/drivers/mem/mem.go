// Package mem implements a memory-backed device driver.
//
// Every open handle gets its own cursor over a byte buffer shared by all
// handles of the same registration. The buffer's size is adjustable at
// runtime through the driver's command set, which also exposes transfer
// counters and a reset.
package mem

import (
	"context"
	"io"
	"sync"

	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/device/errors"
	"github.com/devkit-go/devkit/pkg/ioctl"
)

// Magic identifies the mem driver's command space.
const Magic uint32 = 0x6d // 'm'

// Command requests understood by the driver.
var (
	// CmdSetSize resizes the backing buffer. Payload: int32 new size.
	CmdSetSize = ioctl.Write(Magic, 1, 4)

	// CmdGetSize reads the current buffer size. Payload: int32 out.
	CmdGetSize = ioctl.Read(Magic, 2, 4)

	// CmdReset zeroes the buffer contents and transfer counters.
	CmdReset = ioctl.None(Magic, 3)

	// CmdStats reads transfer counters. Payload: uint64 reads,
	// uint64 writes, uint64 size.
	CmdStats = ioctl.Read(Magic, 4, 24)
)

// session is the per-open state: a cursor into the shared buffer.
type session struct {
	mu  sync.Mutex
	off int
}

// Device is a memory-backed driver. All handles share one buffer;
// the device's own mutex guards it.
type Device struct {
	mu     sync.Mutex
	buf    []byte
	reads  uint64
	writes uint64

	commands *ioctl.Table
}

// New creates a mem device with the given initial buffer size.
func New(size int) *Device {
	d := &Device{buf: make([]byte, size)}

	t := ioctl.NewTable()
	// Table registration of the fixed command set cannot collide.
	_ = t.Handle(CmdSetSize, d.handleSetSize)
	_ = t.Handle(CmdGetSize, d.handleGetSize)
	_ = t.Handle(CmdReset, d.handleReset)
	_ = t.Handle(CmdStats, d.handleStats)
	d.commands = t

	return d
}

// Name implements device.Driver.
func (d *Device) Name() string {
	return "mem"
}

// Open implements device.Driver. Each open starts at offset zero.
func (d *Device) Open(ctx context.Context, node device.Node, flags device.OpenFlags) (any, error) {
	return &session{}, nil
}

// Read copies bytes from the buffer at the session cursor and advances
// it. Returns io.EOF once the cursor reaches the end of the buffer.
func (d *Device) Read(ctx context.Context, state any, p []byte) (int, error) {
	s := state.(*session)
	s.mu.Lock()
	defer s.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if s.off >= len(d.buf) {
		return 0, io.EOF
	}

	n := copy(p, d.buf[s.off:])
	s.off += n
	d.reads += uint64(n)
	return n, nil
}

// Write copies bytes into the buffer at the session cursor and advances
// it. A write that runs past the end of the buffer stores what fits and
// returns io.ErrShortWrite.
func (d *Device) Write(ctx context.Context, state any, p []byte) (int, error) {
	s := state.(*session)
	s.mu.Lock()
	defer s.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if s.off >= len(d.buf) {
		return 0, io.ErrShortWrite
	}

	n := copy(d.buf[s.off:], p)
	s.off += n
	d.writes += uint64(n)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Close implements device.Driver. The session holds no resources beyond
// its cursor.
func (d *Device) Close(state any) error {
	return nil
}

// Commands implements device.Driver.
func (d *Device) Commands() *ioctl.Table {
	return d.commands
}

// Size returns the current buffer size.
func (d *Device) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}

// ============================================================================
// Command handlers
// ============================================================================

func (d *Device) handleSetSize(ctx context.Context, state any, arg *ioctl.ArgBuffer) error {
	size, err := arg.Int32(0)
	if err != nil {
		return err
	}
	if size < 0 {
		return errors.NewInvalidArgumentError("buffer size cannot be negative")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Existing contents survive a resize up to the smaller of the two sizes.
	next := make([]byte, size)
	copy(next, d.buf)
	d.buf = next
	return nil
}

func (d *Device) handleGetSize(ctx context.Context, state any, arg *ioctl.ArgBuffer) error {
	d.mu.Lock()
	size := uint32(len(d.buf))
	d.mu.Unlock()

	return arg.PutUint32(0, size)
}

func (d *Device) handleReset(ctx context.Context, state any, arg *ioctl.ArgBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.buf {
		d.buf[i] = 0
	}
	d.reads = 0
	d.writes = 0
	return nil
}

func (d *Device) handleStats(ctx context.Context, state any, arg *ioctl.ArgBuffer) error {
	d.mu.Lock()
	reads, writes, size := d.reads, d.writes, uint64(len(d.buf))
	d.mu.Unlock()

	if err := arg.PutUint64(0, reads); err != nil {
		return err
	}
	if err := arg.PutUint64(8, writes); err != nil {
		return err
	}
	return arg.PutUint64(16, size)
}
