package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Device Operations
	// ========================================================================
	KeyOp     = "op"     // Dispatcher operation: open, read, write, close, ioctl
	KeyDriver = "driver" // Driver name
	KeyMajor  = "major"  // Major number
	KeyMinor  = "minor"  // Minor number
	KeyNode   = "node"   // Device node rendering, e.g. "c 10:3"
	KeyHandle = "handle" // Handle UUID
	KeyFlags  = "flags"  // Open flags

	// ========================================================================
	// Command (ioctl) Dispatch
	// ========================================================================
	KeyRequest = "request" // Request word in hex
	KeyCmdDir  = "dir"     // Payload direction
	KeyCmdSize = "size"    // Declared payload size

	// ========================================================================
	// I/O
	// ========================================================================
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Framework error code name
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// Op returns a slog.Attr for a dispatcher operation name
func Op(op string) slog.Attr {
	return slog.String(KeyOp, op)
}

// Driver returns a slog.Attr for a driver name
func Driver(name string) slog.Attr {
	return slog.String(KeyDriver, name)
}

// Major returns a slog.Attr for a major number
func Major(major uint32) slog.Attr {
	return slog.Any(KeyMajor, major)
}

// Minor returns a slog.Attr for a minor number
func Minor(minor uint32) slog.Attr {
	return slog.Any(KeyMinor, minor)
}

// Node returns a slog.Attr for a device node rendering
func Node(node string) slog.Attr {
	return slog.String(KeyNode, node)
}

// Handle returns a slog.Attr for a handle UUID
func Handle(id string) slog.Attr {
	return slog.String(KeyHandle, id)
}

// Request returns a slog.Attr for an ioctl request word
func Request(raw uint32) slog.Attr {
	return slog.String(KeyRequest, hexWord(raw))
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a framework error code name
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// hexWord renders a 32-bit word as 0x%08x
func hexWord(raw uint32) string {
	const hexdigits = "0123456789abcdef"
	out := []byte("0x00000000")
	for i := 0; i < 8; i++ {
		out[9-i] = hexdigits[(raw>>(4*i))&0xF]
	}
	return string(out)
}
