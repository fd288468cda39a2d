// Package sink routes engine log and event callbacks to the consumer's
// handlers.
//
// A Registry holds at most one log handler and one event handler. The
// engine never sees those handlers directly: it is given the adapters
// returned by LogAdapter and EventAdapter, which look up the current handler
// on every callback. Replacing a handler therefore takes effect for the next
// callback without re-registering anything with the engine.
package sink

import (
	"sync/atomic"

	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
)

// Registry is safe for concurrent use. Handlers run with no registry lock
// held, so a handler may replace or clear any slot, including its own.
//
// A callback that begins after SetLogSink or SetEventSink returns never
// reaches the previous handler. A callback already running when the slot is
// replaced finishes on the handler it started with.
type Registry struct {
	logs   atomic.Pointer[logSlot]
	events atomic.Pointer[eventSlot]

	level atomic.Int32
}

type logSlot struct{ s hy2.LogSink }

type eventSlot struct{ s hy2.EventSink }

// NewRegistry returns a registry with no handlers and an info threshold.
func NewRegistry() *Registry {
	r := &Registry{}
	r.SetLogLevel(hy2.LevelInfo)
	return r
}

// SetLogSink installs s as the log handler. nil clears it.
func (r *Registry) SetLogSink(s hy2.LogSink) {
	if f, ok := s.(hy2.LogSinkFunc); ok && f == nil {
		s = nil
	}
	if s == nil {
		r.logs.Store(nil)
		return
	}
	r.logs.Store(&logSlot{s: s})
}

// SetEventSink installs s as the event handler. nil clears it.
func (r *Registry) SetEventSink(s hy2.EventSink) {
	if f, ok := s.(hy2.EventSinkFunc); ok && f == nil {
		s = nil
	}
	if s == nil {
		r.events.Store(nil)
		return
	}
	r.events.Store(&eventSlot{s: s})
}

// HasLogSink reports whether a log handler is installed.
func (r *Registry) HasLogSink() bool { return r.logs.Load() != nil }

// HasEventSink reports whether an event handler is installed.
func (r *Registry) HasEventSink() bool { return r.events.Load() != nil }

// SetLogLevel sets the delivery threshold. It returns false and keeps the
// current threshold when level is unknown.
func (r *Registry) SetLogLevel(level string) bool {
	rank, ok := hy2.LevelRank(level)
	if !ok {
		return false
	}
	r.level.Store(int32(rank))
	return true
}

// LogLevel returns the current threshold name.
func (r *Registry) LogLevel() string { return hy2.LevelForRank(int(r.level.Load())) }

// DispatchLog forwards a record to the current handler. Records below the
// threshold are dropped. Unknown levels are filtered as info and delivered
// with their original text.
func (r *Registry) DispatchLog(level, msg string) {
	level, msg = Clean(level), Clean(msg)
	rank, ok := hy2.LevelRank(level)
	if !ok {
		rank, _ = hy2.LevelRank(hy2.LevelInfo)
	}
	if int32(rank) < r.level.Load() {
		telemetry.ObserveCallback("log", telemetry.OutcomeFiltered)
		return
	}

	slot := r.logs.Load()
	if slot == nil {
		telemetry.ObserveCallback("log", telemetry.OutcomeDropped)
		return
	}
	if deliver(func() { slot.s.Log(level, msg) }) {
		telemetry.ObserveCallback("log", telemetry.OutcomeDelivered)
	} else {
		telemetry.ObserveCallback("log", telemetry.OutcomeRecovered)
	}
}

// DispatchEvent forwards an event to the current handler.
func (r *Registry) DispatchEvent(name, data string) {
	name, data = Clean(name), Clean(data)

	slot := r.events.Load()
	if slot == nil {
		telemetry.ObserveCallback("event", telemetry.OutcomeDropped)
		return
	}
	if deliver(func() { slot.s.OnEvent(name, data) }) {
		telemetry.ObserveCallback("event", telemetry.OutcomeDelivered)
	} else {
		telemetry.ObserveCallback("event", telemetry.OutcomeRecovered)
	}
}

// deliver runs fn and reports false if it panicked.
func deliver(fn func()) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	fn()
	return true
}

// LogAdapter is handed to the engine as its log callback.
type LogAdapter struct{ r *Registry }

func (a *LogAdapter) Log(level, msg string) { a.r.DispatchLog(level, msg) }

// EventAdapter is handed to the engine as its event callback.
type EventAdapter struct{ r *Registry }

func (a *EventAdapter) OnEvent(name, data string) { a.r.DispatchEvent(name, data) }

func (r *Registry) LogAdapter() *LogAdapter     { return &LogAdapter{r: r} }
func (r *Registry) EventAdapter() *EventAdapter { return &EventAdapter{r: r} }
