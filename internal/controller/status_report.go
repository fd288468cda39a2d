package controller

import (
	"hy2core/internal/health"
	"hy2core/pkg/hy2"
	"hy2core/pkg/types"
)

// Status returns "running" while running or reloading and "stopped"
// otherwise, including while a start or stop is still in progress.
func (c *Controller) Status() string {
	if c.Running() {
		return hy2.StatusRunning
	}
	return hy2.StatusStopped
}

// Version returns the control plane identity. The engine is not consulted.
func (c *Controller) Version() string { return c.info.String() }

// HealthJSON returns the health document. It never blocks on the engine.
func (c *Controller) HealthJSON() string { return c.reporter.JSON() }

// Health returns the structured health snapshot.
func (c *Controller) Health() health.Snapshot { return c.reporter.Snapshot() }

// EngineHealthJSON passes through the engine's own health document.
func (c *Controller) EngineHealthJSON() (out string) {
	out = "{}"
	c.guard("health", func() {
		if s := c.engine.HealthJSON(); s != "" {
			out = s
		}
	})
	return out
}

// EngineVersion returns the engine's own version string.
func (c *Controller) EngineVersion() (out string) {
	c.guard("version", func() { out = c.engine.Version() })
	return out
}

// Snapshot is the detailed status served on /status.
func (c *Controller) Snapshot() types.StatusResponse {
	now := c.now()
	st := c.State()
	s := types.StatusResponse{
		State:          st.String(),
		Status:         c.Status(),
		Version:        c.Version(),
		EngineVersion:  c.EngineVersion(),
		LogLevel:       c.LogLevel(),
		LastError:      c.LastError(),
		LastErrorUnix:  c.counters.LastErrorTs.Load(),
		Operations:     c.ops.Load(),
		ServerTimeUnix: now.Unix(),
	}
	if st.Serving() {
		s.UptimeSeconds = c.counters.Uptime(now)
	}
	return s
}
