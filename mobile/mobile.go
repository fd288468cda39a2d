// Package mobile is the gomobile binding of hy2core.
//
// Every function is safe for concurrent use and works on one process-wide
// controller driving the hysteria2 engine, created on first use. Errors
// cross the binding as strings ("" means success) or as ErrCode values.
package mobile

import (
	"sync"

	"hy2core/internal/controller"
	"hy2core/internal/engine"
	"hy2core/internal/engine/hysteria"
	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
)

// LogSink receives engine log lines on the platform side.
type LogSink interface{ Log(level, msg string) }

// EventSink receives engine events; data is JSON text.
type EventSink interface{ OnEvent(name, data string) }

var (
	coreOnce sync.Once
	core     *controller.Controller

	// newEngine is replaced in tests.
	newEngine = func(c *telemetry.Counters) engine.Engine {
		return hysteria.New(hysteria.Options{Counters: c})
	}
)

func get() *controller.Controller {
	coreOnce.Do(func() {
		counters := telemetry.NewCounters()
		core = controller.NewWithConfig(controller.Config{Engine: newEngine(counters), Counters: counters, Name: "mobile"})
	})
	return core
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Start launches the engine. It returns "" on success, otherwise the error text.
func Start(configJSON string) string { return errText(get().Start(configJSON)) }

// StartWithCode is Start with a typed result.
func StartWithCode(configJSON string) ErrCode { return codeOf(get().Start(configJSON)) }

// Reload applies a new config. It returns "" on success, otherwise the error text.
func Reload(configJSON string) string { return errText(get().Reload(configJSON)) }

// ReloadWithCode is Reload with a typed result.
func ReloadWithCode(configJSON string) ErrCode { return codeOf(get().Reload(configJSON)) }

// Stop stops the engine; a no-op when already stopped.
func Stop() { get().Stop() }

// Status returns "running" or "stopped".
func Status() string { return get().Status() }

func IsRunning() bool { return get().Running() }

// Version returns e.g. "HY2-Core 0.1.0 (hy2core)".
func Version() string { return get().Version() }

func HealthJSON() string { return get().HealthJSON() }

// SetLogLevel accepts debug, info, warn (or warning) and error.
func SetLogLevel(level string) { get().SetLogLevel(level) }

// SetLogger installs the platform log sink; nil clears it.
func SetLogger(s LogSink) {
	if s == nil {
		get().SetLogSink(nil)
		return
	}
	get().SetLogSink(hy2.LogSinkFunc(s.Log))
}

// SetEventSink installs the platform event sink; nil clears it.
func SetEventSink(s EventSink) {
	if s == nil {
		get().SetEventSink(nil)
		return
	}
	get().SetEventSink(hy2.EventSinkFunc(s.OnEvent))
}
