// Package engine defines the contract between the control plane and a
// tunneling engine, plus helpers shared by engine implementations.
package engine

// LogCallback is the engine-side shape of a log consumer.
type LogCallback interface {
	Log(level, msg string)
}

// EventCallback is the engine-side shape of an event consumer.
type EventCallback interface {
	OnEvent(name, data string)
}

// Engine is a tunneling engine driven by the controller.
//
// Start, Reload and Stop block until the engine has settled. A non-nil error
// carries the engine's own description of the failure. Status reports
// "running" or "stopped". Callbacks may be invoked from any goroutine the
// engine owns.
type Engine interface {
	Start(config string) error
	Reload(config string) error
	Stop() error
	Status() string
	Version() string
	HealthJSON() string
	SetLogLevel(level string)
	SetLogSink(LogCallback)
	SetEventSink(EventCallback)
}

// Preflighter is implemented by engines that can check their runtime
// prerequisites without starting.
type Preflighter interface {
	Preflight() PreflightReport
}

// PreflightReport summarizes prerequisite checks.
type PreflightReport struct {
	OK     bool     `json:"ok"`
	Checks []Check  `json:"checks"`
	Errors []string `json:"errors,omitempty"`
}

// Check is a single named prerequisite.
type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
