package mobile

import (
	"encoding/json"
	"errors"

	"hy2core/internal/controller"
	"hy2core/internal/engine"
)

// ErrCode is a stable numeric result for typed bindings (Kotlin, Swift).
type ErrCode int

const (
	ErrOK ErrCode = iota
	ErrAlreadyRunning
	ErrInvalidConfig
	ErrEngineInitFailed
	ErrNotRunning
)

func (e ErrCode) String() string {
	switch e {
	case ErrOK:
		return "ok"
	case ErrAlreadyRunning:
		return "already_running"
	case ErrInvalidConfig:
		return "invalid_config"
	case ErrEngineInitFailed:
		return "engine_init_failed"
	case ErrNotRunning:
		return "not_running"
	default:
		return "unknown_error"
	}
}

// Error is the JSON form of a result code.
type Error struct {
	Code    ErrCode `json:"code"`
	Name    string  `json:"name"`
	Message string  `json:"message,omitempty"`
}

// JSON renders {"code","name","message"}.
func (e ErrCode) JSON(message string) string {
	b, _ := json.Marshal(Error{Code: e, Name: e.String(), Message: message})
	return string(b)
}

func codeOf(err error) ErrCode {
	switch {
	case err == nil:
		return ErrOK
	case controller.IsAlreadyRunning(err):
		return ErrAlreadyRunning
	case controller.IsNotRunning(err):
		return ErrNotRunning
	case errors.Is(err, engine.ErrInvalidConfig):
		return ErrInvalidConfig
	default:
		return ErrEngineInitFailed
	}
}
