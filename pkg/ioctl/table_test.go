package ioctl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deverrors "github.com/devkit-go/devkit/pkg/device/errors"
)

func nopHandler(ctx context.Context, state any, arg *ArgBuffer) error { return nil }

func TestTableHandleAndLookup(t *testing.T) {
	tbl := NewTable()
	req := ReadWrite(0x6d, 1, 4)
	require.NoError(t, tbl.Handle(req, nopHandler))
	assert.Equal(t, 1, tbl.Len())

	fn, ok := tbl.Lookup(req)
	require.True(t, ok)
	assert.NotNil(t, fn)
}

func TestTableDuplicateCommand(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Handle(Write(0x6d, 1, 4), nopHandler))

	// Same (magic, number) conflicts even with a different direction and
	// size.
	err := tbl.Handle(Read(0x6d, 1, 8), nopHandler)
	require.Error(t, err)
	assert.True(t, deverrors.IsDuplicateCommandError(err))
	assert.Equal(t, 1, tbl.Len())
}

func TestTableRejectsNilHandler(t *testing.T) {
	tbl := NewTable()
	require.Error(t, tbl.Handle(None(0x6d, 1), nil))
	assert.Zero(t, tbl.Len())
}

func TestTableRejectsUnencodableRequest(t *testing.T) {
	tbl := NewTable()

	err := tbl.Handle(Read(0x6d, 1, MaxPayloadSize+1), nopHandler)
	require.Error(t, err)
	assert.True(t, deverrors.IsSizeTooLargeError(err))

	err = tbl.Handle(Write(0x1ff, 1, 4), nopHandler)
	require.Error(t, err)
	assert.True(t, deverrors.IsMagicOutOfRangeError(err))
}

func TestTableLookupExactMatch(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Handle(Write(0x6d, 1, 4), nopHandler))

	// Right (magic, number), wrong direction or size: not a hit.
	_, ok := tbl.Lookup(Read(0x6d, 1, 4))
	assert.False(t, ok)
	_, ok = tbl.Lookup(Write(0x6d, 1, 8))
	assert.False(t, ok)

	_, ok = tbl.Lookup(Write(0x6e, 1, 4))
	assert.False(t, ok)
}

func TestTableRequestsSorted(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Handle(Read(0x70, 2, 4), nopHandler))
	require.NoError(t, tbl.Handle(Write(0x6d, 9, 4), nopHandler))
	require.NoError(t, tbl.Handle(None(0x6d, 1), nopHandler))

	reqs := tbl.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, None(0x6d, 1), reqs[0])
	assert.Equal(t, Write(0x6d, 9, 4), reqs[1])
	assert.Equal(t, Read(0x70, 2, 4), reqs[2])
}

func TestNilTableIsEmpty(t *testing.T) {
	var tbl *Table
	assert.Zero(t, tbl.Len())
	assert.Nil(t, tbl.Requests())
	_, ok := tbl.Lookup(None(0x6d, 1))
	assert.False(t, ok)
}
