package null

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-go/devkit/pkg/device"
)

func TestNullDevice(t *testing.T) {
	d := New()
	ctx := context.Background()

	state, err := d.Open(ctx, device.Node{Kind: device.KindChar, Major: 1, Minor: 3}, device.ReadWrite)
	require.NoError(t, err)

	t.Run("read hits EOF", func(t *testing.T) {
		n, err := d.Read(ctx, state, make([]byte, 16))
		assert.ErrorIs(t, err, io.EOF)
		assert.Zero(t, n)
	})

	t.Run("write discards everything", func(t *testing.T) {
		n, err := d.Write(ctx, state, []byte("discarded"))
		require.NoError(t, err)
		assert.Equal(t, 9, n)
	})

	t.Run("no command table", func(t *testing.T) {
		assert.Nil(t, d.Commands())
	})

	require.NoError(t, d.Close(state))
}
