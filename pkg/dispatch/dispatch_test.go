package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-go/devkit/pkg/binding"
	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/device/errors"
	"github.com/devkit-go/devkit/pkg/drivers/mem"
	"github.com/devkit-go/devkit/pkg/drivers/null"
	"github.com/devkit-go/devkit/pkg/ioctl"
	"github.com/devkit-go/devkit/pkg/registry"
)

// countingDriver records how often its command handler runs so tests can
// assert the handler never fired on validation failures.
type countingDriver struct {
	calls    int
	lastErr  error
	commands *ioctl.Table
}

var cmdBump = ioctl.ReadWrite(0x70, 1, 4)
var cmdSink = ioctl.Write(0x70, 2, 4)

func newCountingDriver() *countingDriver {
	d := &countingDriver{}
	t := ioctl.NewTable()
	_ = t.Handle(cmdBump, func(ctx context.Context, state any, arg *ioctl.ArgBuffer) error {
		d.calls++
		v, err := arg.Uint32(0)
		if err != nil {
			return err
		}
		return arg.PutUint32(0, v+1)
	})
	_ = t.Handle(cmdSink, func(ctx context.Context, state any, arg *ioctl.ArgBuffer) error {
		d.calls++
		// Write-only commands get a read-only payload view.
		d.lastErr = arg.PutUint32(0, 99)
		return nil
	})
	d.commands = t
	return d
}

func (d *countingDriver) Name() string { return "counting" }
func (d *countingDriver) Open(ctx context.Context, node device.Node, flags device.OpenFlags) (any, error) {
	return nil, nil
}
func (d *countingDriver) Read(ctx context.Context, state any, p []byte) (int, error) {
	return 0, nil
}
func (d *countingDriver) Write(ctx context.Context, state any, p []byte) (int, error) {
	return len(p), nil
}
func (d *countingDriver) Close(state any) error  { return nil }
func (d *countingDriver) Commands() *ioctl.Table { return d.commands }

// newDispatcher wires a registry, binding table, and dispatcher with the
// given driver bound at "c <major>:0".
func newDispatcher(t *testing.T, drv device.Driver) (*Dispatcher, device.Node) {
	t.Helper()

	reg := registry.New()
	major, err := reg.Register(drv.Name(), drv, registry.MajorAuto)
	require.NoError(t, err)

	bindings := binding.NewTable()
	node := device.Node{Kind: device.KindChar, Major: major, Minor: 0}
	require.NoError(t, bindings.Bind(context.Background(), node, major))

	return New(reg, bindings), node
}

func TestOpenUnboundNode(t *testing.T) {
	d, _ := newDispatcher(t, null.New())

	_, err := d.Open(context.Background(), device.Node{Kind: device.KindChar, Major: 99, Minor: 0}, device.ReadOnly)
	require.Error(t, err)
	assert.True(t, errors.IsNotBoundError(err))
}

func TestOpenBindingToUnregisteredMajor(t *testing.T) {
	reg := registry.New()
	bindings := binding.NewTable()
	node := device.Node{Kind: device.KindChar, Major: 7, Minor: 0}
	require.NoError(t, bindings.Bind(context.Background(), node, 7))

	d := New(reg, bindings)
	_, err := d.Open(context.Background(), node, device.ReadOnly)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownMajorError(err))
}

func TestOpenReadWriteClose(t *testing.T) {
	d, node := newDispatcher(t, null.New())
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	assert.Equal(t, "null", h.Driver())
	assert.Equal(t, node, h.Node())
	assert.Equal(t, int64(1), d.OpenHandleCount("null"))

	n, err := d.Write(ctx, h, []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, d.Close(ctx, h))
	assert.Equal(t, int64(0), d.OpenHandleCount("null"))
}

func TestDoubleCloseFails(t *testing.T) {
	d, node := newDispatcher(t, null.New())
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadOnly)
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx, h))

	err = d.Close(ctx, h)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidHandleError(err))
}

func TestCallsOnClosedHandle(t *testing.T) {
	d, node := newDispatcher(t, null.New())
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx, h))

	_, err = d.Read(ctx, h, make([]byte, 4))
	assert.True(t, errors.IsInvalidHandleError(err))

	_, err = d.Write(ctx, h, []byte("x"))
	assert.True(t, errors.IsInvalidHandleError(err))

	raw, _ := cmdBump.Encode()
	err = d.Ioctl(ctx, h, raw, make([]byte, 4))
	assert.True(t, errors.IsInvalidHandleError(err))
}

func TestFlagEnforcement(t *testing.T) {
	d, node := newDispatcher(t, null.New())
	ctx := context.Background()

	t.Run("read on write-only handle", func(t *testing.T) {
		h, err := d.Open(ctx, node, device.WriteOnly)
		require.NoError(t, err)
		defer d.Close(ctx, h)

		_, err = d.Read(ctx, h, make([]byte, 4))
		require.Error(t, err)
		assert.Equal(t, "PermissionDenied", errors.CodeLabel(err))
	})

	t.Run("write on read-only handle", func(t *testing.T) {
		h, err := d.Open(ctx, node, device.ReadOnly)
		require.NoError(t, err)
		defer d.Close(ctx, h)

		_, err = d.Write(ctx, h, []byte("x"))
		require.Error(t, err)
		assert.Equal(t, "PermissionDenied", errors.CodeLabel(err))
	})
}

func TestIoctlUnsupportedOnDriverWithoutTable(t *testing.T) {
	d, node := newDispatcher(t, null.New())
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	raw, _ := cmdBump.Encode()
	err = d.Ioctl(ctx, h, raw, make([]byte, 4))
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedCommandError(err))
}

func TestIoctlUnknownCommand(t *testing.T) {
	drv := newCountingDriver()
	d, node := newDispatcher(t, drv)
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	// Same magic, unregistered number.
	raw, _ := ioctl.None(0x70, 200).Encode()
	err = d.Ioctl(ctx, h, raw, nil)
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedCommandError(err))
	assert.Zero(t, drv.calls)
}

func TestIoctlRequestMismatchIsUnsupported(t *testing.T) {
	drv := newCountingDriver()
	d, node := newDispatcher(t, drv)
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	// Right magic and number, wrong declared size: not the registered
	// request, so dispatch refuses it.
	raw, _ := ioctl.ReadWrite(0x70, 1, 8).Encode()
	err = d.Ioctl(ctx, h, raw, make([]byte, 8))
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedCommandError(err))
	assert.Zero(t, drv.calls)
}

func TestIoctlShortBufferFaultsBeforeHandler(t *testing.T) {
	drv := newCountingDriver()
	d, node := newDispatcher(t, drv)
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	raw, _ := cmdBump.Encode()
	err = d.Ioctl(ctx, h, raw, make([]byte, 2)) // declared size is 4
	require.Error(t, err)
	assert.True(t, errors.IsFaultError(err))
	assert.Zero(t, drv.calls, "handler must not run on a fault")
}

func TestIoctlCopyInCopyOut(t *testing.T) {
	drv := newCountingDriver()
	d, node := newDispatcher(t, drv)
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	arg := make([]byte, 4)
	ab, err := ioctl.NewArgBuffer(arg, 4)
	require.NoError(t, err)
	require.NoError(t, ab.PutUint32(0, 41))

	raw, _ := cmdBump.Encode()
	require.NoError(t, d.Ioctl(ctx, h, raw, arg))
	assert.Equal(t, 1, drv.calls)

	out, err := ab.Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), out, "handler increment must be copied back")
}

func TestIoctlWriteOnlyPayloadIsReadOnly(t *testing.T) {
	drv := newCountingDriver()
	d, node := newDispatcher(t, drv)
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	arg := []byte{1, 2, 3, 4}
	raw, _ := cmdSink.Encode()
	require.NoError(t, d.Ioctl(ctx, h, raw, arg))

	require.Error(t, drv.lastErr, "writes through a write-only payload view must fail")
	assert.True(t, errors.IsFaultError(drv.lastErr))
	assert.Equal(t, []byte{1, 2, 3, 4}, arg, "caller buffer untouched without an output leg")
}

func TestIoctlHandlerErrorLeavesCallerBuffer(t *testing.T) {
	boom := errors.NewInvalidArgumentError("bad value")

	drv := newCountingDriver()
	failing := ioctl.Read(0x70, 3, 4)
	require.NoError(t, drv.commands.Handle(failing, func(ctx context.Context, state any, arg *ioctl.ArgBuffer) error {
		_ = arg.PutUint32(0, 0xdeadbeef)
		return boom
	}))

	d, node := newDispatcher(t, drv)
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	arg := []byte{9, 9, 9, 9}
	raw, _ := failing.Encode()
	err = d.Ioctl(ctx, h, raw, arg)
	assert.Equal(t, boom, err, "handler errors propagate unchanged")
	assert.Equal(t, []byte{9, 9, 9, 9}, arg, "no copy-out on handler failure")
}

func TestIoctlMemSizeScenario(t *testing.T) {
	d, node := newDispatcher(t, mem.New(16))
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	// Set the buffer size to 4096.
	arg := make([]byte, 4)
	ab, err := ioctl.NewArgBuffer(arg, 4)
	require.NoError(t, err)
	require.NoError(t, ab.PutUint32(0, 4096))

	raw, _ := mem.CmdSetSize.Encode()
	require.NoError(t, d.Ioctl(ctx, h, raw, arg))

	// Get it back through the read-direction command.
	out := make([]byte, 4)
	raw, _ = mem.CmdGetSize.Encode()
	require.NoError(t, d.Ioctl(ctx, h, raw, out))

	got, err := ioctl.NewReadOnlyArgBuffer(out, 4)
	require.NoError(t, err)
	size, err := got.Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), size)
}

// recordingMetrics captures what the dispatcher reports so tests can
// assert the exact labels handed to the metrics layer.
type recordingMetrics struct {
	codes    []string
	requests []string
}

func (m *recordingMetrics) RecordOperation(op string, driver string, d time.Duration, errorCode string) {
	m.codes = append(m.codes, errorCode)
}
func (m *recordingMetrics) RecordBytesTransferred(driver string, direction string, bytes uint64) {}
func (m *recordingMetrics) SetOpenHandles(driver string, count int64)                            {}
func (m *recordingMetrics) RecordIoctl(driver string, request string) {
	m.requests = append(m.requests, request)
}

func TestMetricsErrorCodeEmptyOnSuccess(t *testing.T) {
	drv := newCountingDriver()

	reg := registry.New()
	major, err := reg.Register(drv.Name(), drv, registry.MajorAuto)
	require.NoError(t, err)

	bindings := binding.NewTable()
	node := device.Node{Kind: device.KindChar, Major: major, Minor: 0}
	require.NoError(t, bindings.Bind(context.Background(), node, major))

	rec := &recordingMetrics{}
	d := New(reg, bindings, WithMetrics(rec))
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)

	arg := make([]byte, 4)
	raw, _ := cmdBump.Encode()
	require.NoError(t, d.Ioctl(ctx, h, raw, arg))
	require.NoError(t, d.Close(ctx, h))

	// open, ioctl, close: all succeeded, all reported with an empty code.
	require.Len(t, rec.codes, 3)
	for _, code := range rec.codes {
		assert.Empty(t, code)
	}

	// The per-command counter gets the hex request word.
	require.Len(t, rec.requests, 1)
	assert.Equal(t, fmt.Sprintf("%#08x", raw), rec.requests[0])
}

func TestMetricsErrorCodeOnFailure(t *testing.T) {
	drv := newCountingDriver()

	reg := registry.New()
	major, err := reg.Register(drv.Name(), drv, registry.MajorAuto)
	require.NoError(t, err)

	bindings := binding.NewTable()
	node := device.Node{Kind: device.KindChar, Major: major, Minor: 0}
	require.NoError(t, bindings.Bind(context.Background(), node, major))

	rec := &recordingMetrics{}
	d := New(reg, bindings, WithMetrics(rec))
	ctx := context.Background()

	h, err := d.Open(ctx, node, device.ReadWrite)
	require.NoError(t, err)
	defer d.Close(ctx, h)

	raw, _ := cmdBump.Encode()
	err = d.Ioctl(ctx, h, raw, make([]byte, 2)) // declared size is 4
	require.Error(t, err)

	require.Len(t, rec.codes, 2) // open then the faulted ioctl
	assert.Empty(t, rec.codes[0])
	assert.Equal(t, "Fault", rec.codes[1])
}

func TestOpenHandlesListing(t *testing.T) {
	d, node := newDispatcher(t, null.New())
	ctx := context.Background()

	a, err := d.Open(ctx, node, device.ReadOnly)
	require.NoError(t, err)
	b, err := d.Open(ctx, node, device.WriteOnly)
	require.NoError(t, err)

	handles := d.OpenHandles()
	assert.Len(t, handles, 2)

	require.NoError(t, d.Close(ctx, a))
	require.NoError(t, d.Close(ctx, b))
	assert.Empty(t, d.OpenHandles())
}
