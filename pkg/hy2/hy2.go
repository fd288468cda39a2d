// Package hy2 defines the public call surface of the hy2core control plane.
//
// A Core drives one tunneling engine through start, reload and stop, and
// routes the engine's asynchronous log and event callbacks to at most one
// consumer handler each. Implementations live in internal/controller
// (in-process), internal/client (over the daemon HTTP API) and mobile
// (string-typed binding).
package hy2

// Core is the lifecycle surface shared by every variant.
//
// Start and Reload return nil on success. Lifecycle calls are serialized by
// the implementation; callbacks may arrive on any goroutine.
type Core interface {
	Start(config string) error
	Reload(config string) error
	Stop()
	Status() string
	Version() string
	HealthJSON() string
	SetLogLevel(level string)
	SetLogSink(LogSink)
	SetEventSink(EventSink)
}

// LogSink receives engine log records.
type LogSink interface {
	Log(level, msg string)
}

// EventSink receives engine events. Data is JSON text.
type EventSink interface {
	OnEvent(name, data string)
}

// LogSinkFunc adapts a function to LogSink.
type LogSinkFunc func(level, msg string)

func (f LogSinkFunc) Log(level, msg string) { f(level, msg) }

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(name, data string)

func (f EventSinkFunc) OnEvent(name, data string) { f(name, data) }

// Status values.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Event names emitted by engines and the controller.
const (
	EventStarted  = "started"
	EventStopped  = "stopped"
	EventReloaded = "reloaded"
	EventPanic    = "panic"
	EventError    = "error"
	EventWarning  = "warning"
	// EventMetrics is reserved for periodic telemetry pushes.
	EventMetrics = "metrics"
)
