package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/ioctl"
)

// Common attribute keys for device operations.
// Dispatch-level keys use the "dev." prefix, command protocol keys use "cmd.",
// control plane keys use their own prefixes.
const (
	// ========================================================================
	// Device attributes
	// ========================================================================
	AttrDriver    = "dev.driver"    // Driver name
	AttrMajor     = "dev.major"     // Major number
	AttrMinor     = "dev.minor"     // Minor number
	AttrNode      = "dev.node"      // Full node string, e.g. "c 10:3"
	AttrNodeKind  = "dev.kind"      // Node kind, "c" or "b"
	AttrHandle    = "dev.handle"    // Open handle ID
	AttrFlags     = "dev.flags"     // Open flags
	AttrOperation = "dev.operation" // Generic operation name
	AttrStatus    = "dev.status"    // Operation status code
	AttrStatusMsg = "dev.status_msg"

	// ========================================================================
	// Transfer attributes
	// ========================================================================
	AttrBytesRead    = "io.bytes_read"
	AttrBytesWritten = "io.bytes_written"
	AttrCount        = "io.count" // Byte count requested

	// ========================================================================
	// Command protocol attributes
	// ========================================================================
	AttrRequest  = "cmd.request"   // Encoded request word, hex
	AttrCmdMagic = "cmd.magic"     // Magic byte
	AttrCmdNr    = "cmd.nr"        // Command number
	AttrCmdDir   = "cmd.direction" // Transfer direction
	AttrCmdSize  = "cmd.size"      // Payload size

	// ========================================================================
	// Control plane attributes
	// ========================================================================
	AttrClientIP = "client.ip"
	AttrUsername = "user.name"
	AttrAuth     = "auth.method"

	// ========================================================================
	// Binding store attributes
	// ========================================================================
	AttrStoreBackend = "store.backend"
	AttrStorePath    = "store.path"
)

// Span names for operations.
// Format: dispatch.<operation> for dispatcher entry points
// Format: <component>.<operation> for internal operations
const (
	// ========================================================================
	// Dispatcher spans
	// ========================================================================
	SpanDispatchOpen  = "dispatch.open"
	SpanDispatchRead  = "dispatch.read"
	SpanDispatchWrite = "dispatch.write"
	SpanDispatchClose = "dispatch.close"
	SpanDispatchIoctl = "dispatch.ioctl"

	// ========================================================================
	// Registry and binding spans
	// ========================================================================
	SpanRegistryRegister   = "registry.register"
	SpanRegistryUnregister = "registry.unregister"
	SpanBindingBind        = "binding.bind"
	SpanBindingUnbind      = "binding.unbind"
	SpanBindingResolve     = "binding.resolve"

	// ========================================================================
	// Binding store spans
	// ========================================================================
	SpanStorePut    = "store.put"
	SpanStoreDelete = "store.delete"
	SpanStoreList   = "store.list"
)

// Driver returns an attribute for the driver name
func Driver(name string) attribute.KeyValue {
	return attribute.String(AttrDriver, name)
}

// Major returns an attribute for a major number
func Major(major uint32) attribute.KeyValue {
	return attribute.Int64(AttrMajor, int64(major))
}

// Minor returns an attribute for a minor number
func Minor(minor uint32) attribute.KeyValue {
	return attribute.Int64(AttrMinor, int64(minor))
}

// Node returns an attribute for a device node
func Node(node device.Node) attribute.KeyValue {
	return attribute.String(AttrNode, node.String())
}

// Handle returns an attribute for an open handle ID
func Handle(id string) attribute.KeyValue {
	return attribute.String(AttrHandle, id)
}

// Flags returns an attribute for open flags
func Flags(flags device.OpenFlags) attribute.KeyValue {
	return attribute.Int64(AttrFlags, int64(flags))
}

// Operation returns an attribute for a generic operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// BytesRead returns an attribute for bytes read
func BytesRead(n int) attribute.KeyValue {
	return attribute.Int64(AttrBytesRead, int64(n))
}

// BytesWritten returns an attribute for bytes written
func BytesWritten(n int) attribute.KeyValue {
	return attribute.Int64(AttrBytesWritten, int64(n))
}

// Count returns an attribute for a requested byte count
func Count(n int) attribute.KeyValue {
	return attribute.Int64(AttrCount, int64(n))
}

// Request returns attributes describing a decoded command request.
// The raw word is rendered as hex so backends show the wire value verbatim.
func Request(raw uint32, req ioctl.Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRequest, fmt.Sprintf("0x%08x", raw)),
		attribute.Int64(AttrCmdMagic, int64(req.Magic)),
		attribute.Int64(AttrCmdNr, int64(req.Nr)),
		attribute.String(AttrCmdDir, req.Dir.String()),
		attribute.Int64(AttrCmdSize, int64(req.Size)),
	}
}

// Status returns an attribute for an operation status code
func Status(code string) attribute.KeyValue {
	return attribute.String(AttrStatus, code)
}

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// Username returns an attribute for the authenticated user
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// StoreBackend returns an attribute for the binding store backend
func StoreBackend(backend string) attribute.KeyValue {
	return attribute.String(AttrStoreBackend, backend)
}

// WithSpanKind returns a span start option with the given kind
func WithSpanKind(kind trace.SpanKind) trace.SpanStartOption {
	return trace.WithSpanKind(kind)
}
