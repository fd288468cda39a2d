package engine

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"hy2core/pkg/hy2"
)

// Callbacks holds the log and event consumers an engine reports to.
// Embed it to get SetLogSink, SetEventSink and SetLogLevel for free.
// The zero value is ready to use and filters below info.
type Callbacks struct {
	mu    sync.RWMutex
	log   LogCallback
	event EventCallback
	// threshold rank; 0 means unset (info)
	level atomic.Int32
}

func (c *Callbacks) SetLogSink(l LogCallback) {
	c.mu.Lock()
	c.log = l
	c.mu.Unlock()
}

func (c *Callbacks) SetEventSink(e EventCallback) {
	c.mu.Lock()
	c.event = e
	c.mu.Unlock()
}

// SetLogLevel changes the engine-side threshold. Unknown levels are ignored.
func (c *Callbacks) SetLogLevel(level string) {
	if r, ok := hy2.LevelRank(level); ok {
		c.level.Store(int32(r))
	}
}

// LogLevel returns the current threshold name.
func (c *Callbacks) LogLevel() string {
	r := c.level.Load()
	if r == 0 {
		return hy2.LevelInfo
	}
	return hy2.LevelForRank(int(r))
}

func (c *Callbacks) enabled(level string) bool {
	floor := c.level.Load()
	if floor == 0 {
		r, _ := hy2.LevelRank(hy2.LevelInfo)
		floor = int32(r)
	}
	r, ok := hy2.LevelRank(level)
	if !ok {
		return true
	}
	return int32(r) >= floor
}

// Logf formats and forwards a record when level passes the threshold.
func (c *Callbacks) Logf(level, format string, args ...any) {
	if !c.enabled(level) {
		return
	}
	c.mu.RLock()
	l := c.log
	c.mu.RUnlock()
	if l == nil {
		return
	}
	l.Log(level, fmt.Sprintf(format, args...))
}

func (c *Callbacks) Debugf(format string, args ...any) { c.Logf(hy2.LevelDebug, format, args...) }
func (c *Callbacks) Infof(format string, args ...any)  { c.Logf(hy2.LevelInfo, format, args...) }
func (c *Callbacks) Warnf(format string, args ...any)  { c.Logf(hy2.LevelWarn, format, args...) }
func (c *Callbacks) Errorf(format string, args ...any) { c.Logf(hy2.LevelError, format, args...) }

// Emit forwards a raw event.
func (c *Callbacks) Emit(name, data string) {
	c.mu.RLock()
	e := c.event
	c.mu.RUnlock()
	if e == nil {
		return
	}
	e.OnEvent(name, data)
}

// EmitJSON marshals v as the event payload.
func (c *Callbacks) EmitJSON(name string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte("{}")
	}
	c.Emit(name, string(b))
}

// EmitState emits a state event with an empty object payload.
func (c *Callbacks) EmitState(name string) { c.Emit(name, "{}") }

// ErrorPayload is the data of an "error" event.
type ErrorPayload struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// EmitError emits an "error" event with {"code":code,"msg":msg}.
func (c *Callbacks) EmitError(code int, msg string) {
	c.EmitJSON(hy2.EventError, ErrorPayload{Code: code, Msg: msg})
}

// Error codes carried by error events.
const (
	CodeInvalidConfig = 1
	CodeDial          = 2
	CodeProcessExit   = 3
	CodeReload        = 4
)
