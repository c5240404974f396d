// Package null implements the data-sink driver: reads hit immediate EOF,
// writes are accepted and discarded. It has no command set, which makes
// it the reference case for command dispatch on a driver without a table.
package null

import (
	"context"
	"io"

	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/ioctl"
)

// Device is the null driver. It is stateless; the zero value is usable.
type Device struct{}

// New creates a null device.
func New() *Device {
	return &Device{}
}

// Name implements device.Driver.
func (d *Device) Name() string {
	return "null"
}

// Open implements device.Driver. There is no per-open state.
func (d *Device) Open(ctx context.Context, node device.Node, flags device.OpenFlags) (any, error) {
	return nil, nil
}

// Read implements device.Driver. The null device is always at EOF.
func (d *Device) Read(ctx context.Context, state any, p []byte) (int, error) {
	return 0, io.EOF
}

// Write implements device.Driver. Everything written is discarded.
func (d *Device) Write(ctx context.Context, state any, p []byte) (int, error) {
	return len(p), nil
}

// Close implements device.Driver.
func (d *Device) Close(state any) error {
	return nil
}

// Commands implements device.Driver. The null device has no commands.
func (d *Device) Commands() *ioctl.Table {
	return nil
}
