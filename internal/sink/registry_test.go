package sink

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hy2core/pkg/hy2"
)

type collect struct {
	mu  sync.Mutex
	got []string
}

func (c *collect) Log(level, msg string)     { c.add(level + "|" + msg) }
func (c *collect) OnEvent(name, data string) { c.add(name + "|" + data) }
func (c *collect) add(s string) {
	c.mu.Lock()
	c.got = append(c.got, s)
	c.mu.Unlock()
}
func (c *collect) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestLastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	a, b := &collect{}, &collect{}
	la := r.LogAdapter()

	r.SetLogSink(a)
	la.Log("info", "one")
	r.SetLogSink(b)
	la.Log("info", "two")

	assert.Equal(t, []string{"info|one"}, a.all())
	assert.Equal(t, []string{"info|two"}, b.all())
}

func TestClearingStopsDelivery(t *testing.T) {
	r := NewRegistry()
	logs, events := &collect{}, &collect{}
	r.SetLogSink(logs)
	r.SetEventSink(events)
	r.SetLogSink(nil)
	r.SetEventSink(nil)

	r.LogAdapter().Log("error", "dropped")
	r.EventAdapter().OnEvent("started", "{}")

	assert.Empty(t, logs.all())
	assert.Empty(t, events.all())
	assert.False(t, r.HasLogSink())
	assert.False(t, r.HasEventSink())
}

func TestNilFuncSinkClears(t *testing.T) {
	r := NewRegistry()
	var f hy2.LogSinkFunc
	r.SetLogSink(f)
	assert.False(t, r.HasLogSink())
	r.DispatchLog("info", "no panic")
}

func TestLevelThreshold(t *testing.T) {
	r := NewRegistry()
	c := &collect{}
	r.SetLogSink(c)

	r.DispatchLog("debug", "filtered")
	r.DispatchLog("warn", "kept")
	r.DispatchLog("trace", "unknown treated as info")
	require.False(t, r.SetLogLevel("loud"))
	require.True(t, r.SetLogLevel("ERROR"))
	r.DispatchLog("warn", "now filtered")
	r.DispatchLog("trace", "filtered too")
	assert.Equal(t, "error", r.LogLevel())

	assert.Equal(t, []string{"warn|kept", "trace|unknown treated as info"}, c.all())
}

func TestHandlerPanicIsContained(t *testing.T) {
	r := NewRegistry()
	r.SetEventSink(hy2.EventSinkFunc(func(string, string) { panic("consumer bug") }))
	assert.NotPanics(t, func() { r.EventAdapter().OnEvent("started", "{}") })
}

func TestMalformedTextIsNormalized(t *testing.T) {
	r := NewRegistry()
	c := &collect{}
	r.SetLogSink(c)
	r.DispatchLog("info", "bad\xffbyte\x00end")
	r.DispatchLog("info", "")
	assert.Equal(t, []string{"info|bad�byteend", "info|"}, c.all())
}

// finishes fails the test if fn does not return promptly.
func finishes(t *testing.T, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not return", what)
	}
}

func TestHandlerClearsItsOwnSlot(t *testing.T) {
	r := NewRegistry()
	seen := &collect{}
	r.SetEventSink(hy2.EventSinkFunc(func(name, data string) {
		seen.OnEvent(name, data)
		if name == hy2.EventStopped {
			r.SetEventSink(nil)
		}
	}))

	finishes(t, "dispatch of stopped", func() { r.DispatchEvent(hy2.EventStopped, "{}") })
	r.DispatchEvent(hy2.EventStarted, "{}")

	assert.Equal(t, []string{"stopped|{}"}, seen.all())
	assert.False(t, r.HasEventSink())
}

func TestHandlerReplacesSlots(t *testing.T) {
	r := NewRegistry()
	next := &collect{}
	r.SetLogSink(hy2.LogSinkFunc(func(level, msg string) {
		r.SetLogSink(next)
		r.SetEventSink(next)
		r.SetLogLevel(hy2.LevelDebug)
	}))

	finishes(t, "dispatch", func() { r.DispatchLog("info", "first") })
	r.DispatchLog("debug", "second")
	r.DispatchEvent("metrics", "{}")

	assert.Equal(t, []string{"debug|second", "metrics|{}"}, next.all())
}

func TestSwapDuringSlowCallbackDoesNotStall(t *testing.T) {
	r := NewRegistry()
	entered := make(chan struct{})
	release := make(chan struct{})
	old, repl := &collect{}, &collect{}
	r.SetLogSink(hy2.LogSinkFunc(func(level, msg string) {
		if msg == "slow" {
			close(entered)
			<-release
		}
		old.Log(level, msg)
	}))

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		r.DispatchLog("info", "slow")
	}()
	<-entered

	finishes(t, "SetLogSink", func() { r.SetLogSink(repl) })
	finishes(t, "dispatch from another goroutine", func() { r.DispatchLog("info", "after") })

	close(release)
	<-slowDone
	assert.Equal(t, []string{"info|slow"}, old.all())
	assert.Equal(t, []string{"info|after"}, repl.all())
}

func TestConcurrentSwapAndDispatch(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.SetLogSink(&collect{})
				r.SetEventSink(nil)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.DispatchLog("info", "x")
				r.DispatchEvent("metrics", "{}")
			}
		}()
	}
	wg.Wait()
}

func TestZerologSink(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologSink(zerolog.New(&buf))
	z.Log("warn", "slow handshake")
	z.OnEvent("error", `{"code":2,"msg":"dial failed"}`)
	z.OnEvent("started", "not json")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn","source":"engine","message":"slow handshake"`)
	assert.Contains(t, out, `"data":{"code":2,"msg":"dial failed"}`)
	assert.Contains(t, out, `"data":"not json"`)
}

func TestTee(t *testing.T) {
	a, b := &collect{}, &collect{}
	tee := Tee{Logs: []hy2.LogSink{a, nil, b}, Events: []hy2.EventSink{b}}
	tee.Log("info", "x")
	tee.OnEvent("stopped", "{}")
	assert.Equal(t, []string{"info|x"}, a.all())
	assert.Equal(t, []string{"info|x", "stopped|{}"}, b.all())
}
