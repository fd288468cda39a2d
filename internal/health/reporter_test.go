package health

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"hy2core/internal/telemetry"
	"hy2core/pkg/version"
)

var testInfo = version.Info{Name: "HY2-Core", Version: "0.1.0", Engine: "hy2core"}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
}

func TestMinimalShape(t *testing.T) {
	running := false
	r := NewReporter(func() bool { return running }, testInfo, telemetry.NewCounters())
	assert.Equal(t, `{"running":false,"engine":"hy2core","version":"0.1.0"}`, r.JSON())

	running = true
	assert.Equal(t, `{"running":true,"engine":"hy2core","version":"0.1.0"}`, r.JSON())
}

func TestNilCountersAndRunningFunc(t *testing.T) {
	r := NewReporter(nil, testInfo, nil)
	assert.Equal(t, `{"running":false,"engine":"hy2core","version":"0.1.0"}`, r.JSON())
}

func TestFullSnapshotGolden(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	c := telemetry.NewCounters()
	c.MarkStarted(t0)
	c.BytesIn.Store(4096)
	c.BytesOut.Store(1024)
	c.Reconnects.Store(2)
	c.QuicRttMs.Store(37)
	c.LastBackoffMs.Store(1000)
	c.RecordError(t0.Add(5 * time.Second))
	c.SetIdentity("vpn.example.com", "h3")

	r := NewReporter(func() bool { return true }, testInfo, c).WithClock(func() time.Time { return t0.Add(90 * time.Second) })
	golden(t).Assert(t, "full", []byte(r.JSON()+"\n"))
}

func TestUptimeOnlyWhileRunning(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	c := telemetry.NewCounters()
	c.MarkStarted(t0)
	r := NewReporter(func() bool { return false }, testInfo, c).WithClock(func() time.Time { return t0.Add(time.Minute) })
	assert.Zero(t, r.Snapshot().UptimeS)
}
