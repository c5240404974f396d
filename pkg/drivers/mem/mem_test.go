package mem

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/device/errors"
	"github.com/devkit-go/devkit/pkg/ioctl"
)

func openSession(t *testing.T, d *Device) any {
	t.Helper()
	state, err := d.Open(context.Background(), device.Node{Kind: device.KindChar, Major: 1}, device.ReadWrite)
	require.NoError(t, err)
	return state
}

// runCommand executes a command against the driver's table the way the
// dispatcher would, with a scratch buffer of the declared size.
func runCommand(t *testing.T, d *Device, req ioctl.Request, payload []byte) ([]byte, error) {
	t.Helper()

	fn, ok := d.Commands().Lookup(req)
	require.True(t, ok, "command not in table")

	scratch := make([]byte, req.Size)
	copy(scratch, payload)

	ab, err := ioctl.NewArgBuffer(scratch, req.Size)
	require.NoError(t, err)

	state := openSession(t, d)
	if err := fn(context.Background(), state, ab); err != nil {
		return nil, err
	}
	return scratch, nil
}

func TestReadWriteRoundTrip(t *testing.T) {
	d := New(16)
	ctx := context.Background()

	w := openSession(t, d)
	n, err := d.Write(ctx, w, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	r := openSession(t, d)
	buf := make([]byte, 5)
	n, err = d.Read(ctx, r, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), buf)
}

func TestReadEOFAtEnd(t *testing.T) {
	d := New(4)
	ctx := context.Background()

	s := openSession(t, d)
	buf := make([]byte, 8)
	n, err := d.Read(ctx, s, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = d.Read(ctx, s, buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWritePastEndIsShort(t *testing.T) {
	d := New(4)
	ctx := context.Background()

	s := openSession(t, d)
	n, err := d.Write(ctx, s, []byte("toolong"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 4, n)

	_, err = d.Write(ctx, s, []byte("x"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestEachOpenHasOwnCursor(t *testing.T) {
	d := New(8)
	ctx := context.Background()

	a := openSession(t, d)
	b := openSession(t, d)

	_, err := d.Write(ctx, a, []byte("abcd"))
	require.NoError(t, err)

	// Session b still reads from the start.
	buf := make([]byte, 4)
	n, err := d.Read(ctx, b, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("abcd"), buf)
}

func TestSetSizeThenGetSize(t *testing.T) {
	d := New(16)

	payload := make([]byte, 4)
	ab, err := ioctl.NewArgBuffer(payload, 4)
	require.NoError(t, err)
	require.NoError(t, ab.PutUint32(0, 4096))

	_, err = runCommand(t, d, CmdSetSize, payload)
	require.NoError(t, err)
	assert.Equal(t, 4096, d.Size())

	out, err := runCommand(t, d, CmdGetSize, nil)
	require.NoError(t, err)

	got, err := ioctl.NewReadOnlyArgBuffer(out, 4)
	require.NoError(t, err)
	size, err := got.Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), size)
}

func TestSetSizeNegativeRejected(t *testing.T) {
	d := New(16)

	payload := make([]byte, 4)
	ab, err := ioctl.NewArgBuffer(payload, 4)
	require.NoError(t, err)
	require.NoError(t, ab.PutUint32(0, 0xFFFFFFFF)) // int32 -1

	_, err = runCommand(t, d, CmdSetSize, payload)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgumentError(err))

	// Size unchanged after the rejected command.
	assert.Equal(t, 16, d.Size())
}

func TestResizePreservesPrefix(t *testing.T) {
	d := New(8)
	ctx := context.Background()

	s := openSession(t, d)
	_, err := d.Write(ctx, s, []byte("abcdefgh"))
	require.NoError(t, err)

	payload := make([]byte, 4)
	ab, err := ioctl.NewArgBuffer(payload, 4)
	require.NoError(t, err)
	require.NoError(t, ab.PutUint32(0, 4))

	_, err = runCommand(t, d, CmdSetSize, payload)
	require.NoError(t, err)

	r := openSession(t, d)
	buf := make([]byte, 8)
	n, err := d.Read(ctx, r, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("abcd"), buf[:n])
}

func TestResetClearsContentsAndCounters(t *testing.T) {
	d := New(8)
	ctx := context.Background()

	s := openSession(t, d)
	_, err := d.Write(ctx, s, []byte("data"))
	require.NoError(t, err)

	_, err = runCommand(t, d, CmdReset, nil)
	require.NoError(t, err)

	r := openSession(t, d)
	buf := make([]byte, 4)
	_, err = d.Read(ctx, r, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	// Stats reflect only the post-reset read.
	out, err := runCommand(t, d, CmdStats, nil)
	require.NoError(t, err)

	stats, err := ioctl.NewReadOnlyArgBuffer(out, 24)
	require.NoError(t, err)
	reads, err := stats.Uint64(0)
	require.NoError(t, err)
	writes, err := stats.Uint64(8)
	require.NoError(t, err)
	size, err := stats.Uint64(16)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), reads)
	assert.Equal(t, uint64(0), writes)
	assert.Equal(t, uint64(8), size)
}

func TestCommandTableRegistered(t *testing.T) {
	d := New(0)
	table := d.Commands()
	require.NotNil(t, table)
	assert.Equal(t, 4, table.Len())

	for _, req := range []ioctl.Request{CmdSetSize, CmdGetSize, CmdReset, CmdStats} {
		_, ok := table.Lookup(req)
		assert.True(t, ok, "missing command %+v", req)
	}
}
