// Package telemetry holds per-instance engine counters and their Prometheus
// exposition.
package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counters are the numbers surfaced by health snapshots. Engines write them,
// the health reporter and the Prometheus collector read them. Safe for
// concurrent use.
type Counters struct {
	BytesIn       atomic.Uint64
	BytesOut      atomic.Uint64
	Reconnects    atomic.Uint32
	QuicRttMs     atomic.Int64
	LastBackoffMs atomic.Int64
	LastErrorTs   atomic.Int64

	startUnix atomic.Int64

	mu   sync.RWMutex
	sni  string
	alpn string
}

func NewCounters() *Counters { return &Counters{} }

// MarkStarted records the start time used for uptime.
func (c *Counters) MarkStarted(now time.Time) { c.startUnix.Store(now.Unix()) }

// MarkStopped clears the start time.
func (c *Counters) MarkStopped() { c.startUnix.Store(0) }

// Uptime is whole seconds since MarkStarted, 0 when stopped.
func (c *Counters) Uptime(now time.Time) int64 {
	su := c.startUnix.Load()
	if su == 0 {
		return 0
	}
	if n := now.Unix(); n > su {
		return n - su
	}
	return 0
}

// RecordError stamps LastErrorTs.
func (c *Counters) RecordError(now time.Time) { c.LastErrorTs.Store(now.Unix()) }

// SetIdentity stores the negotiated TLS server name and ALPN.
func (c *Counters) SetIdentity(sni, alpn string) {
	c.mu.Lock()
	c.sni, c.alpn = sni, alpn
	c.mu.Unlock()
}

func (c *Counters) Identity() (sni, alpn string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sni, c.alpn
}

// Reset zeroes traffic and session fields. LastErrorTs survives so a health
// query after a failed start still shows when it happened.
func (c *Counters) Reset() {
	c.BytesIn.Store(0)
	c.BytesOut.Store(0)
	c.Reconnects.Store(0)
	c.QuicRttMs.Store(0)
	c.LastBackoffMs.Store(0)
	c.startUnix.Store(0)
	c.SetIdentity("", "")
}
