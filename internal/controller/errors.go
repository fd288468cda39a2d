package controller

import (
	"errors"
	"strings"
)

// ErrAlreadyRunning is returned by Start unless the controller is stopped.
var ErrAlreadyRunning = errors.New("already running")

// ErrNotRunning is returned by Reload unless the controller is running.
var ErrNotRunning = errors.New("not running")

// IsAlreadyRunning reports whether err is ErrAlreadyRunning.
func IsAlreadyRunning(err error) bool { return errors.Is(err, ErrAlreadyRunning) }

// IsNotRunning reports whether err is ErrNotRunning.
func IsNotRunning(err error) bool { return errors.Is(err, ErrNotRunning) }

// EngineError carries a failure reported by the engine. Error returns the
// engine's text unchanged.
type EngineError struct {
	Op    string
	Msg   string
	Panic bool
	Err   error
}

func (e *EngineError) Error() string { return e.Msg }

func (e *EngineError) Unwrap() error { return e.Err }

// IsEngineError reports whether err originated in the engine.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}

// IsEnginePanic reports whether err is a recovered engine panic.
func IsEnginePanic(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Panic
}

func engineError(op string, err error) *EngineError {
	msg := err.Error()
	if strings.TrimSpace(msg) == "" {
		msg = "engine " + op + " failed"
	}
	return &EngineError{Op: op, Msg: msg, Err: err}
}
