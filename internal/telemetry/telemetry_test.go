package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/ioctl"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "devkit", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpanWithoutInit(t *testing.T) {
	ctx := context.Background()

	spanCtx, span := StartSpan(ctx, SpanDispatchOpen)
	require.NotNil(t, spanCtx)
	require.NotNil(t, span)
	span.End()
}

func TestRecordErrorNilIsNoOp(t *testing.T) {
	ctx := context.Background()
	RecordError(ctx, nil)
	RecordError(ctx, errors.New("boom"))
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

func TestNodeAttribute(t *testing.T) {
	node := device.Node{Kind: device.KindChar, Major: 10, Minor: 3}
	attr := Node(node)

	assert.Equal(t, AttrNode, string(attr.Key))
	assert.Equal(t, "c 10:3", attr.Value.AsString())
}

func TestRequestAttributes(t *testing.T) {
	req := ioctl.Read(0x4d, 2, 8)
	raw, err := req.Encode()
	require.NoError(t, err)

	attrs := Request(raw, req)
	require.Len(t, attrs, 5)
	assert.Equal(t, AttrRequest, string(attrs[0].Key))
	assert.Contains(t, attrs[0].Value.AsString(), "0x")
	assert.Equal(t, int64(0x4d), attrs[1].Value.AsInt64())
	assert.Equal(t, int64(2), attrs[2].Value.AsInt64())
	assert.Equal(t, int64(8), attrs[4].Value.AsInt64())
}
