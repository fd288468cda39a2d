package controller

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hy2core/internal/engine"
	"hy2core/internal/health"
	"hy2core/internal/sink"
	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
	"hy2core/pkg/version"
)

// Controller drives one engine through its lifecycle and implements hy2.Core.
type Controller struct {
	// opMu serializes Start, Reload and Stop.
	opMu  sync.Mutex
	state atomic.Int32

	name      string
	engine    engine.Engine
	sinks     *sink.Registry
	counters  *telemetry.Counters
	reporter  *health.Reporter
	info      version.Info
	publisher TransitionPublisher
	log       zerolog.Logger
	now       func() time.Time

	ops       atomic.Uint64
	lastErrMu sync.RWMutex
	lastErr   string
}

var _ hy2.Core = (*Controller)(nil)

// State returns the current lifecycle state without blocking.
func (c *Controller) State() State { return State(c.state.Load()) }

// Running reports whether Status would return "running".
func (c *Controller) Running() bool { return c.State().Serving() }

// Sinks exposes the handler registry.
func (c *Controller) Sinks() *sink.Registry { return c.sinks }

// Counters exposes the telemetry counters shared with the engine.
func (c *Controller) Counters() *telemetry.Counters { return c.counters }

// Engine returns the wrapped engine.
func (c *Controller) Engine() engine.Engine { return c.engine }

// LastError returns the text of the most recent failed operation.
func (c *Controller) LastError() string {
	c.lastErrMu.RLock()
	defer c.lastErrMu.RUnlock()
	return c.lastErr
}

func (c *Controller) setLastError(err error) {
	c.lastErrMu.Lock()
	c.lastErr = err.Error()
	c.lastErrMu.Unlock()
	c.counters.RecordError(c.now())
}

// setState must be called with opMu held.
func (c *Controller) setState(opID, op string, to State, err error) {
	from := State(c.state.Swap(int32(to)))
	telemetry.SetState(c.name, int(to))
	t := Transition{OpID: opID, Op: op, From: from, To: to, At: c.now()}
	if err != nil {
		t.Err = err.Error()
	}
	c.publisher.Publish(t)
	c.log.Debug().Str("op_id", opID).Str("op", op).Str("from", from.String()).Str("to", to.String()).Msg("state transition")
}
