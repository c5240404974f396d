// Package dispatch routes device calls from callers to driver handlers.
//
// The dispatcher is the single entry point for device I/O: it resolves a
// node to a major through the binding table, finds the owning driver in
// the registry, and threads per-open state through the driver's handler
// set. Out-of-band typed commands are decoded, validated, and executed
// against the driver's command table with copy-in/copy-out semantics.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/devkit-go/devkit/internal/logger"
	"github.com/devkit-go/devkit/internal/telemetry"
	"github.com/devkit-go/devkit/pkg/binding"
	"github.com/devkit-go/devkit/pkg/bufpool"
	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/device/errors"
	"github.com/devkit-go/devkit/pkg/ioctl"
	"github.com/devkit-go/devkit/pkg/metrics"
	"github.com/devkit-go/devkit/pkg/registry"
)

// ============================================================================
// Handle
// ============================================================================

// Handle represents one successful open of a device node. All subsequent
// reads, writes, commands, and the final close go through the handle.
//
// A handle stays valid even if the node is later unbound or the driver
// unregistered; it pins the registration it was opened against.
type Handle struct {
	id     string
	node   device.Node
	flags  device.OpenFlags
	reg    *registry.Registration
	state  any
	closed atomic.Bool

	// openedAt is kept for the control-plane handle listing
	openedAt time.Time
}

// ID returns the unique identifier of this handle.
func (h *Handle) ID() string {
	return h.id
}

// Node returns the node this handle was opened on.
func (h *Handle) Node() device.Node {
	return h.node
}

// Driver returns the name of the driver serving this handle.
func (h *Handle) Driver() string {
	return h.reg.Name
}

// Flags returns the open flags the handle was opened with.
func (h *Handle) Flags() device.OpenFlags {
	return h.flags
}

// OpenedAt returns when the handle was opened.
func (h *Handle) OpenedAt() time.Time {
	return h.openedAt
}

// Closed reports whether the handle has been closed.
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// ============================================================================
// Dispatcher
// ============================================================================

// Dispatcher routes device calls to the drivers that own them.
//
// The dispatcher never holds its own lock, the registry lock, or the
// binding table lock across a driver handler call. A driver blocked in
// Read cannot stall opens or commands on other devices.
type Dispatcher struct {
	registry *registry.Registry
	bindings *binding.Table
	metrics  metrics.DispatchMetrics
	pool     *bufpool.Pool

	mu          sync.Mutex
	openHandles map[string]int64 // per-driver open handle counts
	handles     map[string]*Handle
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics attaches dispatch metrics. A nil implementation is
// tolerated; recording becomes a no-op.
func WithMetrics(m metrics.DispatchMetrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithPool overrides the scratch buffer pool used for command payloads.
func WithPool(p *bufpool.Pool) Option {
	return func(d *Dispatcher) {
		d.pool = p
	}
}

// New creates a Dispatcher over the given registry and binding table.
func New(reg *registry.Registry, bindings *binding.Table, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    reg,
		bindings:    bindings,
		openHandles: make(map[string]int64),
		handles:     make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ============================================================================
// Open / Close
// ============================================================================

// Open resolves node through the binding table, looks up the owning
// driver, and asks it to open. On success the returned handle carries
// the driver's per-open state for all later calls.
//
// Returns NotBound if the node has no binding, UnknownMajor if the
// binding points at a major with no registered driver, and propagates
// driver refusals (Busy, PermissionDenied, ...) unchanged.
func (d *Dispatcher) Open(ctx context.Context, node device.Node, flags device.OpenFlags) (*Handle, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanDispatchOpen)
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.Node(node), telemetry.Flags(flags))

	start := time.Now()

	major, err := d.bindings.Resolve(node)
	if err != nil {
		d.recordOp("open", "", start, err)
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	reg, err := d.registry.Lookup(major)
	if err != nil {
		d.recordOp("open", "", start, err)
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.Driver(reg.Name), telemetry.Major(major))

	// Driver call happens outside any dispatcher lock; Open may block.
	state, err := reg.Driver.Open(ctx, node, flags)
	if err != nil {
		d.recordOp("open", reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "device open refused",
			logger.Driver(reg.Name), logger.Node(node.String()), logger.Err(err))
		return nil, err
	}

	h := &Handle{
		id:       uuid.New().String(),
		node:     node,
		flags:    flags,
		reg:      reg,
		state:    state,
		openedAt: time.Now(),
	}

	d.mu.Lock()
	d.handles[h.id] = h
	d.openHandles[reg.Name]++
	count := d.openHandles[reg.Name]
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.SetOpenHandles(reg.Name, count)
	}
	d.recordOp("open", reg.Name, start, nil)

	logger.DebugCtx(ctx, "device opened",
		logger.Driver(reg.Name), logger.Node(node.String()), logger.Handle(h.id))

	return h, nil
}

// Close releases the handle. The driver's Close is invoked exactly once;
// a second Close on the same handle returns InvalidHandle without
// reaching the driver.
func (d *Dispatcher) Close(ctx context.Context, h *Handle) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanDispatchClose)
	defer span.End()

	start := time.Now()

	if h == nil || !h.closed.CompareAndSwap(false, true) {
		err := errors.NewInvalidHandleError()
		d.recordOp("close", "", start, err)
		telemetry.RecordError(ctx, err)
		return err
	}
	telemetry.SetAttributes(ctx, telemetry.Driver(h.reg.Name), telemetry.Handle(h.id))

	err := h.reg.Driver.Close(h.state)

	d.mu.Lock()
	delete(d.handles, h.id)
	d.openHandles[h.reg.Name]--
	count := d.openHandles[h.reg.Name]
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.SetOpenHandles(h.reg.Name, count)
	}
	d.recordOp("close", h.reg.Name, start, err)

	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "device close failed",
			logger.Driver(h.reg.Name), logger.Handle(h.id), logger.Err(err))
		return err
	}

	logger.DebugCtx(ctx, "device closed",
		logger.Driver(h.reg.Name), logger.Handle(h.id))
	return nil
}

// ============================================================================
// Read / Write
// ============================================================================

// Read fills p from the device and returns the number of bytes read.
// Fails with PermissionDenied when the handle was not opened for
// reading and InvalidHandle after Close.
func (d *Dispatcher) Read(ctx context.Context, h *Handle, p []byte) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanDispatchRead)
	defer span.End()

	start := time.Now()

	if h == nil || h.closed.Load() {
		err := errors.NewInvalidHandleError()
		d.recordOp("read", "", start, err)
		telemetry.RecordError(ctx, err)
		return 0, err
	}
	telemetry.SetAttributes(ctx, telemetry.Driver(h.reg.Name), telemetry.Handle(h.id), telemetry.Count(len(p)))

	if !h.flags.CanRead() {
		err := errors.NewPermissionDeniedError(h.reg.Name)
		d.recordOp("read", h.reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	n, err := h.reg.Driver.Read(ctx, h.state, p)

	if d.metrics != nil && n > 0 {
		d.metrics.RecordBytesTransferred(h.reg.Name, "read", uint64(n))
	}
	d.recordOp("read", h.reg.Name, start, err)

	if err != nil {
		telemetry.RecordError(ctx, err)
		return n, err
	}

	telemetry.SetAttributes(ctx, telemetry.BytesRead(n))
	logger.DebugCtx(ctx, "device read",
		logger.Driver(h.reg.Name), logger.Handle(h.id), logger.BytesRead(n))
	return n, nil
}

// Write sends p to the device and returns the number of bytes written.
// Fails with PermissionDenied when the handle was not opened for
// writing and InvalidHandle after Close.
func (d *Dispatcher) Write(ctx context.Context, h *Handle, p []byte) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanDispatchWrite)
	defer span.End()

	start := time.Now()

	if h == nil || h.closed.Load() {
		err := errors.NewInvalidHandleError()
		d.recordOp("write", "", start, err)
		telemetry.RecordError(ctx, err)
		return 0, err
	}
	telemetry.SetAttributes(ctx, telemetry.Driver(h.reg.Name), telemetry.Handle(h.id), telemetry.Count(len(p)))

	if !h.flags.CanWrite() {
		err := errors.NewPermissionDeniedError(h.reg.Name)
		d.recordOp("write", h.reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	n, err := h.reg.Driver.Write(ctx, h.state, p)

	if d.metrics != nil && n > 0 {
		d.metrics.RecordBytesTransferred(h.reg.Name, "write", uint64(n))
	}
	d.recordOp("write", h.reg.Name, start, err)

	if err != nil {
		telemetry.RecordError(ctx, err)
		return n, err
	}

	telemetry.SetAttributes(ctx, telemetry.BytesWritten(n))
	logger.DebugCtx(ctx, "device write",
		logger.Driver(h.reg.Name), logger.Handle(h.id), logger.BytesWritten(n))
	return n, nil
}

// ============================================================================
// Ioctl
// ============================================================================

// Ioctl decodes raw, looks the request up in the driver's command table,
// and runs the handler against a scratch copy of arg.
//
// The caller's buffer is touched according to the request's direction:
// copied into the scratch before the handler when the direction has a
// caller-to-driver leg, copied back after the handler succeeds when it
// has a driver-to-caller leg. On handler failure arg is never written.
//
// The size check happens before the handler runs: when arg is shorter
// than the declared payload size the call fails with Fault and the
// handler is not invoked.
func (d *Dispatcher) Ioctl(ctx context.Context, h *Handle, raw uint32, arg []byte) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanDispatchIoctl)
	defer span.End()

	start := time.Now()

	if h == nil || h.closed.Load() {
		err := errors.NewInvalidHandleError()
		d.recordOp("ioctl", "", start, err)
		telemetry.RecordError(ctx, err)
		return err
	}

	req := ioctl.Decode(raw)
	telemetry.SetAttributes(ctx, telemetry.Request(raw, req)...)
	telemetry.SetAttributes(ctx, telemetry.Driver(h.reg.Name), telemetry.Handle(h.id))

	table := h.reg.Driver.Commands()
	if table == nil {
		err := errors.NewUnsupportedCommandError(h.reg.Name, raw)
		d.recordOp("ioctl", h.reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		return err
	}

	fn, ok := table.Lookup(req)
	if !ok {
		err := errors.NewUnsupportedCommandError(h.reg.Name, raw)
		d.recordOp("ioctl", h.reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		return err
	}

	// Payload bounds are validated before the handler ever runs.
	if req.Size > 0 && len(arg) < req.Size {
		err := errors.NewFaultError(req.Size, len(arg))
		d.recordOp("ioctl", h.reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		return err
	}

	var (
		scratch []byte
		ab      *ioctl.ArgBuffer
		err     error
	)
	if req.Size > 0 {
		scratch = d.getBuffer(req.Size)
		defer d.putBuffer(scratch)

		if req.Dir.CopyIn() {
			copy(scratch[:req.Size], arg[:req.Size])
		}

		// A write-only command gets a read-only view; handlers cannot
		// scribble on payloads they never declared an output leg for.
		if req.Dir == ioctl.DirWrite {
			ab, err = ioctl.NewReadOnlyArgBuffer(scratch, req.Size)
		} else {
			ab, err = ioctl.NewArgBuffer(scratch, req.Size)
		}
	} else {
		ab, err = ioctl.NewArgBuffer(nil, 0)
	}
	if err != nil {
		d.recordOp("ioctl", h.reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		return err
	}

	if d.metrics != nil {
		d.metrics.RecordIoctl(h.reg.Name, fmt.Sprintf("%#08x", raw))
	}

	if err := fn(ctx, h.state, ab); err != nil {
		d.recordOp("ioctl", h.reg.Name, start, err)
		telemetry.RecordError(ctx, err)
		logger.DebugCtx(ctx, "command failed",
			logger.Driver(h.reg.Name), logger.Handle(h.id),
			logger.Request(raw), logger.Err(err))
		return err
	}

	if req.Dir.CopyOut() {
		copy(arg[:req.Size], scratch[:req.Size])
	}

	d.recordOp("ioctl", h.reg.Name, start, nil)
	logger.DebugCtx(ctx, "command executed",
		logger.Driver(h.reg.Name), logger.Handle(h.id), logger.Request(raw))
	return nil
}

// ============================================================================
// Introspection
// ============================================================================

// OpenHandles returns the live handles, for the control-plane listing.
func (d *Dispatcher) OpenHandles() []*Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*Handle, 0, len(d.handles))
	for _, h := range d.handles {
		out = append(out, h)
	}
	return out
}

// OpenHandleCount returns the number of live handles for a driver.
func (d *Dispatcher) OpenHandleCount(driver string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openHandles[driver]
}

// ============================================================================
// Internal helpers
// ============================================================================

func (d *Dispatcher) getBuffer(size int) []byte {
	if d.pool != nil {
		return d.pool.Get(size)
	}
	return bufpool.Get(size)
}

func (d *Dispatcher) putBuffer(buf []byte) {
	if d.pool != nil {
		d.pool.Put(buf)
		return
	}
	bufpool.Put(buf)
}

func (d *Dispatcher) recordOp(op, driver string, start time.Time, err error) {
	if d.metrics == nil {
		return
	}
	code := ""
	if err != nil {
		code = errors.CodeLabel(err)
	}
	d.metrics.RecordOperation(op, driver, time.Since(start), code)
}
