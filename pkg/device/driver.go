package device

import (
	"context"

	"github.com/devkit-go/devkit/pkg/ioctl"
)

// Driver is the handler set a loadable driver supplies to the registry.
//
// The dispatcher routes generic open/read/write/close calls on a live
// handle into these methods, threading the opaque per-open state returned
// by Open through every subsequent call. Out-of-band commands go through
// the driver's command table instead of Read/Write.
//
// Handler calls may block arbitrarily long (a driver may be waiting on
// real hardware); the dispatcher never holds a registry-wide lock across
// a handler call, so a slow driver cannot stall unrelated devices.
// Cancellation is the driver's business: the dispatcher passes ctx
// through and adds no timeout of its own.
//
// Synchronization of driver-internal state shared across handles of the
// same registration is the driver's responsibility. The dispatcher
// serializes nothing across handles.
//
// Example usage:
//
//	major, _ := reg.Register("mem", mem.New(4096), registry.MajorAuto)
//	bindings.Bind(device.Node{Kind: device.KindChar, Major: major}, major)
type Driver interface {
	// Name returns the driver's human-readable name, used in logs,
	// metrics labels, and the control-plane API.
	Name() string

	// Open is invoked once per successful open of a node bound to this
	// driver. It returns opaque per-open state that the dispatcher hands
	// back on every later call for that handle. Drivers refuse opens by
	// returning an error (Busy, PermissionDenied, ...), which the
	// dispatcher propagates unchanged.
	Open(ctx context.Context, node Node, flags OpenFlags) (any, error)

	// Read fills p from the device and returns the byte count. io.EOF
	// signals end of device in the usual way.
	Read(ctx context.Context, state any, p []byte) (int, error)

	// Write consumes p and returns the byte count accepted.
	Write(ctx context.Context, state any, p []byte) (int, error)

	// Close releases the per-open state. Invoked exactly once per handle.
	Close(state any) error

	// Commands returns the driver's command table, or nil when the driver
	// supports no out-of-band commands.
	Commands() *ioctl.Table
}
