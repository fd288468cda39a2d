// Package health renders the health snapshot of one controller.
package health

import (
	"encoding/json"
	"time"

	"hy2core/internal/telemetry"
	"hy2core/pkg/version"
)

// Snapshot is the health document. The first three fields are always
// present; metric fields are omitted while zero.
type Snapshot struct {
	Running       bool   `json:"running"`
	Engine        string `json:"engine"`
	Version       string `json:"version"`
	BytesIn       uint64 `json:"bytes_in,omitempty"`
	BytesOut      uint64 `json:"bytes_out,omitempty"`
	Reconnects    uint32 `json:"reconnects,omitempty"`
	QuicRttMs     int64  `json:"quic_rtt_ms,omitempty"`
	UptimeS       int64  `json:"uptime_s,omitempty"`
	SNI           string `json:"sni,omitempty"`
	ALPN          string `json:"alpn,omitempty"`
	LastBackoffMs int64  `json:"last_backoff_ms,omitempty"`
	LastErrorTs   int64  `json:"last_error_ts,omitempty"`
}

// Reporter builds snapshots on demand. Nothing is cached.
type Reporter struct {
	running  func() bool
	info     version.Info
	counters *telemetry.Counters
	now      func() time.Time
}

// NewReporter wires a reporter. counters may be nil, in which case only the
// fixed fields are reported.
func NewReporter(running func() bool, info version.Info, counters *telemetry.Counters) *Reporter {
	return &Reporter{running: running, info: info, counters: counters, now: time.Now}
}

// WithClock replaces the time source used for uptime.
func (r *Reporter) WithClock(now func() time.Time) *Reporter {
	if now != nil {
		r.now = now
	}
	return r
}

// Snapshot collects the current values.
func (r *Reporter) Snapshot() Snapshot {
	s := Snapshot{
		Running: r.running != nil && r.running(),
		Engine:  r.info.Engine,
		Version: r.info.Version,
	}
	c := r.counters
	if c == nil {
		return s
	}
	s.BytesIn = c.BytesIn.Load()
	s.BytesOut = c.BytesOut.Load()
	s.Reconnects = c.Reconnects.Load()
	s.QuicRttMs = c.QuicRttMs.Load()
	s.LastBackoffMs = c.LastBackoffMs.Load()
	s.LastErrorTs = c.LastErrorTs.Load()
	s.SNI, s.ALPN = c.Identity()
	if s.Running {
		s.UptimeS = c.Uptime(r.now())
	}
	return s
}

// JSON renders the snapshot. It cannot fail: the document only holds
// strings, booleans and integers.
func (r *Reporter) JSON() string {
	b, err := json.Marshal(r.Snapshot())
	if err != nil {
		return `{"running":false,"engine":"","version":""}`
	}
	return string(b)
}
