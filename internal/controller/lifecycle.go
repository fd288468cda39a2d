package controller

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
)

// Start launches the engine with config. It fails with ErrAlreadyRunning
// unless the controller is stopped, and with an *EngineError when the
// engine rejects the start.
func (c *Controller) Start(config string) error {
	opID := uuid.NewString()
	c.opMu.Lock()
	defer c.opMu.Unlock()
	log := c.log.With().Str("op", "start").Str("op_id", opID).Logger()

	if st := c.State(); st != StateStopped {
		log.Debug().Str("state", st.String()).Msg("start rejected")
		telemetry.ObserveOp("start", telemetry.ResultRejected)
		return ErrAlreadyRunning
	}
	c.setState(opID, "start", StateStarting, nil)

	c.guard("register sinks", func() {
		c.engine.SetLogSink(c.sinks.LogAdapter())
		c.engine.SetEventSink(c.sinks.EventAdapter())
		c.engine.SetLogLevel(c.sinks.LogLevel())
	})
	if err := c.call("start", func() error { return c.engine.Start(config) }); err != nil {
		c.setLastError(err)
		c.setState(opID, "start", StateStopped, err)
		log.Error().Err(err).Msg("engine start failed")
		telemetry.ObserveOp("start", resultOf(err))
		return err
	}

	c.counters.MarkStarted(c.now())
	c.setState(opID, "start", StateRunning, nil)
	c.ops.Add(1)
	log.Info().Int("config_bytes", len(config)).Msg("engine started")
	telemetry.ObserveOp("start", telemetry.ResultOK)
	return nil
}

// Reload hands a new config to the running engine. It fails with
// ErrNotRunning unless the controller is running. When the engine rejects
// the reload the controller asks the engine whether it is still running and
// settles on Running or Stopped accordingly.
func (c *Controller) Reload(config string) error {
	opID := uuid.NewString()
	c.opMu.Lock()
	defer c.opMu.Unlock()
	log := c.log.With().Str("op", "reload").Str("op_id", opID).Logger()

	if st := c.State(); st != StateRunning {
		log.Debug().Str("state", st.String()).Msg("reload rejected")
		telemetry.ObserveOp("reload", telemetry.ResultRejected)
		return ErrNotRunning
	}
	c.setState(opID, "reload", StateReloading, nil)

	err := c.call("reload", func() error { return c.engine.Reload(config) })
	if err == nil {
		c.setState(opID, "reload", StateRunning, nil)
		c.ops.Add(1)
		log.Info().Int("config_bytes", len(config)).Msg("engine reloaded")
		telemetry.ObserveOp("reload", telemetry.ResultOK)
		return nil
	}

	c.setLastError(err)
	telemetry.ObserveOp("reload", resultOf(err))
	if c.engineStatus() == hy2.StatusRunning {
		c.setState(opID, "reload", StateRunning, err)
		log.Warn().Err(err).Msg("engine rejected reload; previous config still active")
		return err
	}
	c.counters.MarkStopped()
	c.setState(opID, "reload", StateStopped, err)
	log.Error().Err(err).Msg("engine halted during reload")
	return err
}

// Stop shuts the engine down. It is idempotent and never fails; engine
// errors are logged and the controller ends up stopped either way.
func (c *Controller) Stop() {
	opID := uuid.NewString()
	c.opMu.Lock()
	defer c.opMu.Unlock()
	log := c.log.With().Str("op", "stop").Str("op_id", opID).Logger()

	if c.State() == StateStopped {
		telemetry.ObserveOp("stop", telemetry.ResultRejected)
		return
	}
	c.setState(opID, "stop", StateStopping, nil)
	result := telemetry.ResultOK
	if err := c.call("stop", c.engine.Stop); err != nil {
		c.setLastError(err)
		result = resultOf(err)
		log.Warn().Err(err).Msg("engine stop reported an error")
	}
	c.counters.MarkStopped()
	c.setState(opID, "stop", StateStopped, nil)
	c.ops.Add(1)
	log.Info().Msg("engine stopped")
	telemetry.ObserveOp("stop", result)
}

// call runs an engine operation, converting both returned errors and panics
// into *EngineError.
func (c *Controller) call(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = c.recovered(op, r)
		}
	}()
	if e := fn(); e != nil {
		return engineError(op, e)
	}
	return nil
}

// guard runs an engine call that returns nothing.
func (c *Controller) guard(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			_ = c.recovered(op, r)
		}
	}()
	fn()
}

func (c *Controller) recovered(op string, r any) *EngineError {
	msg := fmt.Sprintf("engine panic: %v", r)
	c.log.Error().Str("op", op).Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("recovered engine panic")
	c.sinks.DispatchLog(hy2.LevelError, fmt.Sprintf("%s (during %s)", msg, op))
	data, _ := json.Marshal(map[string]string{"msg": msg, "op": op})
	c.sinks.DispatchEvent(hy2.EventPanic, string(data))
	return &EngineError{Op: op, Msg: msg, Panic: true}
}

// engineStatus asks the engine for its status. A panicking engine counts as
// stopped.
func (c *Controller) engineStatus() (status string) {
	c.guard("status", func() { status = c.engine.Status() })
	return status
}

func resultOf(err error) string {
	if IsEnginePanic(err) {
		return telemetry.ResultPanic
	}
	return telemetry.ResultError
}
