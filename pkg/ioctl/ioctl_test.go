package ioctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deverrors "github.com/devkit-go/devkit/pkg/device/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"none", None(0x6d, 0)},
		{"read", Read(0x6d, 2, 4)},
		{"write", Write(0x6d, 1, 4)},
		{"read-write", ReadWrite(0x6d, 3, 24)},
		{"max size", Read(0xff, 255, MaxPayloadSize)},
		{"zero magic", Write(0, 1, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.req.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.req, Decode(raw))
		})
	}
}

func TestEncodeSizeTooLarge(t *testing.T) {
	_, err := Read(0x6d, 1, MaxPayloadSize+1).Encode()
	require.Error(t, err)
	assert.True(t, deverrors.IsSizeTooLargeError(err))

	_, err = Request{Dir: DirRead, Size: -1, Magic: 0x6d, Nr: 1}.Encode()
	require.Error(t, err)
	assert.True(t, deverrors.IsSizeTooLargeError(err))
}

func TestEncodeMagicOutOfRange(t *testing.T) {
	_, err := Write(0x100, 1, 4).Encode()
	require.Error(t, err)
	assert.True(t, deverrors.IsMagicOutOfRangeError(err))
}

// Decode is total: every 32-bit word yields a request whose fields sit
// inside their declared ranges and that re-encodes to the same word.
func TestDecodeTotal(t *testing.T) {
	words := []uint32{0, 1, 0xdeadbeef, 0xffffffff, 0x80045301, 0x40046d02}

	for _, raw := range words {
		req := Decode(raw)
		assert.LessOrEqual(t, req.Size, MaxPayloadSize)
		assert.LessOrEqual(t, req.Magic, uint32(0xff))

		encoded, err := req.Encode()
		require.NoError(t, err)
		assert.Equal(t, raw, encoded)
	}
}

func TestBuilderDirections(t *testing.T) {
	assert.Equal(t, DirNone, None(0x6d, 1).Dir)
	assert.Equal(t, DirRead, Read(0x6d, 1, 4).Dir)
	assert.Equal(t, DirWrite, Write(0x6d, 1, 4).Dir)
	assert.Equal(t, DirReadWrite, ReadWrite(0x6d, 1, 4).Dir)
	assert.Zero(t, None(0x6d, 1).Size)
}

func TestDirCopySemantics(t *testing.T) {
	assert.False(t, DirNone.CopyIn())
	assert.False(t, DirNone.CopyOut())
	assert.True(t, DirWrite.CopyIn())
	assert.False(t, DirWrite.CopyOut())
	assert.False(t, DirRead.CopyIn())
	assert.True(t, DirRead.CopyOut())
	assert.True(t, DirReadWrite.CopyIn())
	assert.True(t, DirReadWrite.CopyOut())
}

func TestRequestString(t *testing.T) {
	assert.Equal(t, "read-write magic=0x6d nr=2 size=8", ReadWrite(0x6d, 2, 8).String())
}
