package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Node", "Driver", "Major")

	assert.Equal(t, []string{"Node", "Driver", "Major"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("c 10:0", "mem", "10")
	table.AddRow("c 11:0", "null", "11")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"c 10:0", "mem", "10"}, rows[0])
	assert.Equal(t, []string{"c 11:0", "null", "11"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Name", "Value")
	table.AddRow("key1", "value1")
	table.AddRow("key2", "value2")

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "VALUE")
	assert.Contains(t, out, "key1")
	assert.Contains(t, out, "value2")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Server", "http://localhost:8080"},
		{"Status", "healthy"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Server")
	assert.Contains(t, out, "http://localhost:8080")
	assert.Contains(t, out, "healthy")
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "3d 0h 30m 15s", FormatUptime("72h30m15s"))
	assert.Equal(t, "2h 5m 0s", FormatUptime("2h5m"))
	assert.Equal(t, "45s", FormatUptime("45s"))
	assert.Equal(t, "garbage", FormatUptime("garbage"))
}

func TestFormatTime(t *testing.T) {
	// Invalid timestamps pass through unchanged
	assert.Equal(t, "not-a-time", FormatTime("not-a-time"))

	formatted := FormatTime("2026-08-30T10:00:00Z")
	assert.NotEqual(t, "2026-08-30T10:00:00Z", formatted)
	assert.Contains(t, formatted, "2026")
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "-", FormatAge(time.Time{}))
	assert.Equal(t, "0s", FormatAge(time.Now()))
	assert.Equal(t, "2h", FormatAge(time.Now().Add(-2*time.Hour)))
	assert.Equal(t, "3d", FormatAge(time.Now().Add(-73*time.Hour)))
}
