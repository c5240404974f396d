package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkit-go/devkit/pkg/metrics"
)

// gatherCounter sums all series of a counter family in the process-wide
// registry, returning the summed value and the number of series.
func gatherCounter(t *testing.T, name string) (float64, int) {
	t.Helper()

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total, len(mf.GetMetric())
	}
	return 0, 0
}

// The process-wide registry is registered against exactly once, so the
// whole collector lifecycle lives in one test.
func TestDispatchMetrics(t *testing.T) {
	metrics.InitRegistry()
	m := NewDispatchMetrics()
	require.NotNil(t, m)

	// A successful operation carries an empty error code and must not
	// touch the errors counter.
	m.RecordOperation("read", "mem", time.Millisecond, "")
	errTotal, series := gatherCounter(t, "devkit_dispatch_errors_total")
	assert.Zero(t, errTotal)
	assert.Zero(t, series)

	opsTotal, _ := gatherCounter(t, "devkit_dispatch_operations_total")
	assert.Equal(t, 1.0, opsTotal)

	// A failed operation counts under its error code.
	m.RecordOperation("ioctl", "mem", time.Millisecond, "Fault")
	errTotal, series = gatherCounter(t, "devkit_dispatch_errors_total")
	assert.Equal(t, 1.0, errTotal)
	assert.Equal(t, 1, series)

	m.RecordBytesTransferred("mem", "read", 512)
	bytesTotal, _ := gatherCounter(t, "devkit_dispatch_bytes_total")
	assert.Equal(t, 512.0, bytesTotal)

	m.RecordIoctl("mem", "0x40046d02")
	ioctlTotal, _ := gatherCounter(t, "devkit_dispatch_ioctls_total")
	assert.Equal(t, 1.0, ioctlTotal)

	m.SetOpenHandles("mem", 3)
	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "devkit_dispatch_open_handles" {
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 3.0, mf.GetMetric()[0].GetGauge().GetValue())
			found = true
		}
	}
	assert.True(t, found)
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *dispatchMetrics
	m.RecordOperation("read", "mem", time.Millisecond, "")
	m.RecordBytesTransferred("mem", "read", 1)
	m.SetOpenHandles("mem", 0)
	m.RecordIoctl("mem", "0x0")
}
