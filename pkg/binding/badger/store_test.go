package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-go/devkit/pkg/binding/store"
	"github.com/devkit-go/devkit/pkg/device"
)

func TestPutListDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	node := device.Node{Kind: device.KindChar, Major: 1, Minor: 0}
	rec := store.Record{Node: node, Major: 1, BoundAt: time.Now().UTC()}

	require.NoError(t, s.Put(ctx, rec))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, node, records[0].Node)
	assert.Equal(t, uint32(1), records[0].Major)

	require.NoError(t, s.Delete(ctx, node))
	records, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Deleting an absent node succeeds.
	require.NoError(t, s.Delete(ctx, node))
}

func TestPutUpserts(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	node := device.Node{Kind: device.KindChar, Major: 1, Minor: 0}

	require.NoError(t, s.Put(ctx, store.Record{Node: node, Major: 1, BoundAt: time.Now().UTC()}))
	require.NoError(t, s.Put(ctx, store.Record{Node: node, Major: 2, BoundAt: time.Now().UTC()}))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(2), records[0].Major)
}

func TestBindingsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := store.Record{
		Node:    device.Node{Kind: device.KindChar, Major: 1, Minor: 0},
		Major:   1,
		BoundAt: time.Now().UTC().Truncate(time.Second),
	}
	second := store.Record{
		Node:    device.Node{Kind: device.KindBlock, Major: 2, Minor: 3},
		Major:   2,
		BoundAt: time.Now().UTC().Truncate(time.Second),
	}

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, first))
	require.NoError(t, s.Put(ctx, second))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byNode := make(map[device.Node]store.Record, len(records))
	for _, rec := range records {
		byNode[rec.Node] = rec
	}
	assert.Equal(t, first.Major, byNode[first.Node].Major)
	assert.True(t, first.BoundAt.Equal(byNode[first.Node].BoundAt))
	assert.Equal(t, second.Major, byNode[second.Node].Major)
	assert.True(t, second.BoundAt.Equal(byNode[second.Node].BoundAt))
}

func TestCancelledContext(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	node := device.Node{Kind: device.KindChar, Major: 1, Minor: 0}
	require.Error(t, s.Put(ctx, store.Record{Node: node, Major: 1}))
	require.Error(t, s.Delete(ctx, node))
	_, err = s.List(ctx)
	require.Error(t, err)
}
