// Package metrics defines the observability interfaces of the device
// framework and owns the process-wide Prometheus registry. Concrete
// implementations live in the prometheus subpackage; every interface is
// optional - a nil value disables collection with zero overhead.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the process-wide Prometheus registry. Call once at
// startup before constructing any metrics implementation; constructors
// return nil (metrics disabled) until this has run.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// DispatchMetrics provides observability for dispatcher operations.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	d := dispatch.New(reg, bindings, dispatch.WithMetrics(prometheus.NewDispatchMetrics()))
//
//	// Without metrics (omit the option for zero overhead)
//	d := dispatch.New(reg, bindings)
type DispatchMetrics interface {
	// RecordOperation records a completed dispatcher operation with its
	// name ("open", "read", "write", "close", "ioctl"), the driver it was
	// routed to, its duration, and the error code if it failed (empty on
	// success).
	RecordOperation(op string, driver string, duration time.Duration, errorCode string)

	// RecordBytesTransferred records bytes moved through read or write.
	// direction is "read" or "write".
	RecordBytesTransferred(driver string, direction string, bytes uint64)

	// SetOpenHandles updates the current open-handle count for a driver.
	SetOpenHandles(driver string, count int64)

	// RecordIoctl records one command dispatch by driver and hex request
	// word, separate from the coarse operation counter so evolving command
	// sets stay visible per-command.
	RecordIoctl(driver string, request string)
}
