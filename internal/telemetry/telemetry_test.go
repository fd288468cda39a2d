package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersUptime(t *testing.T) {
	c := NewCounters()
	t0 := time.Unix(1_700_000_000, 0)
	assert.Zero(t, c.Uptime(t0))

	c.MarkStarted(t0)
	assert.Equal(t, int64(0), c.Uptime(t0))
	assert.Equal(t, int64(42), c.Uptime(t0.Add(42*time.Second)))
	assert.Zero(t, c.Uptime(t0.Add(-time.Second)))

	c.MarkStopped()
	assert.Zero(t, c.Uptime(t0.Add(time.Hour)))
}

func TestCountersResetKeepsLastError(t *testing.T) {
	c := NewCounters()
	c.BytesIn.Store(10)
	c.Reconnects.Add(3)
	c.SetIdentity("example.com", "h3")
	c.RecordError(time.Unix(99, 0))
	c.Reset()

	assert.Zero(t, c.BytesIn.Load())
	assert.Zero(t, c.Reconnects.Load())
	sni, alpn := c.Identity()
	assert.Empty(t, sni+alpn)
	assert.Equal(t, int64(99), c.LastErrorTs.Load())
}

// opCounter returns one child of the lifecycle counter.
func opCounter(op, result string) prometheus.Counter { return lifecycleOps.WithLabelValues(op, result) }

func TestObserveOp(t *testing.T) {
	before := testutil.ToFloat64(opCounter("start", ResultRejected))
	ObserveOp("start", ResultRejected)
	assert.Equal(t, before+1, testutil.ToFloat64(opCounter("start", ResultRejected)))
}

func TestStateIsPerInstance(t *testing.T) {
	SetState("state-a", 2)
	SetState("state-b", 4)
	assert.Equal(t, 2.0, testutil.ToFloat64(engineState.WithLabelValues("state-a")))
	assert.Equal(t, 4.0, testutil.ToFloat64(engineState.WithLabelValues("state-b")))
	SetState("state-b", 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(engineState.WithLabelValues("state-a")))
}

func TestCollector(t *testing.T) {
	c := NewCounters()
	c.BytesIn.Store(1024)
	c.Reconnects.Add(2)
	col := NewCollector(c, func() bool { return true })

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(col))

	expected := `
# HELP hy2core_engine_bytes_in_total Bytes received through the tunnel
# TYPE hy2core_engine_bytes_in_total counter
hy2core_engine_bytes_in_total 1024
# HELP hy2core_engine_reconnects_total Session re-establishment attempts
# TYPE hy2core_engine_reconnects_total counter
hy2core_engine_reconnects_total 2
# HELP hy2core_engine_running 1 when the engine is running
# TYPE hy2core_engine_running gauge
hy2core_engine_running 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"hy2core_engine_bytes_in_total", "hy2core_engine_reconnects_total", "hy2core_engine_running")
	require.NoError(t, err)
}
