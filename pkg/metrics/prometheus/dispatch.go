package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/devkit-go/devkit/pkg/metrics"
)

// dispatchMetrics is the Prometheus implementation of metrics.DispatchMetrics.
type dispatchMetrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	bytes       *prometheus.CounterVec
	openHandles *prometheus.GaugeVec
	ioctls      *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewDispatchMetrics creates a new Prometheus-backed DispatchMetrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewDispatchMetrics() metrics.DispatchMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &dispatchMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "devkit_dispatch_operations_total",
				Help: "Total number of dispatcher operations by operation and driver",
			},
			[]string{"op", "driver"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "devkit_dispatch_duration_milliseconds",
				Help: "Duration of dispatcher operations in milliseconds",
				Buckets: []float64{
					0.01, // 10us - table lookups, mem devices
					0.05,
					0.1,
					0.5,
					1,
					5,
					10,
					50,
					100,  // slow hardware
					1000, // drivers blocked on a device
				},
			},
			[]string{"op", "driver"},
		),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "devkit_dispatch_bytes_total",
				Help: "Total bytes moved through read and write by driver and direction",
			},
			[]string{"driver", "direction"},
		),
		openHandles: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "devkit_dispatch_open_handles",
				Help: "Current number of open handles by driver",
			},
			[]string{"driver"},
		),
		ioctls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "devkit_dispatch_ioctls_total",
				Help: "Total number of ioctl dispatches by driver and request word",
			},
			[]string{"driver", "request"},
		),
		errors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "devkit_dispatch_errors_total",
				Help: "Total number of failed dispatcher operations by operation, driver, and error code",
			},
			[]string{"op", "driver", "code"},
		),
	}
}

// RecordOperation records a completed dispatcher operation.
func (m *dispatchMetrics) RecordOperation(op string, driver string, duration time.Duration, errorCode string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, driver).Inc()
	m.duration.WithLabelValues(op, driver).Observe(float64(duration.Microseconds()) / 1000.0)
	if errorCode != "" {
		m.errors.WithLabelValues(op, driver, errorCode).Inc()
	}
}

// RecordBytesTransferred records bytes moved through read or write.
func (m *dispatchMetrics) RecordBytesTransferred(driver string, direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(driver, direction).Add(float64(bytes))
}

// SetOpenHandles updates the current open-handle count for a driver.
func (m *dispatchMetrics) SetOpenHandles(driver string, count int64) {
	if m == nil {
		return
	}
	m.openHandles.WithLabelValues(driver).Set(float64(count))
}

// RecordIoctl records one command dispatch.
func (m *dispatchMetrics) RecordIoctl(driver string, request string) {
	if m == nil {
		return
	}
	m.ioctls.WithLabelValues(driver, request).Inc()
}
