package controller

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hy2core/internal/engine"
	"hy2core/pkg/hy2"
	"hy2core/pkg/version"
)

const scenarioCfg = `{"inbounds":[],"outbounds":[],"route":{}}`

var testInfo = version.Info{Name: "HY2-Core", Version: "0.1.0", Engine: "hy2core"}

// fakeEngine is a scriptable engine used for tests.
type fakeEngine struct {
	engine.Callbacks

	mu          sync.Mutex
	running     bool
	startErr    error
	reloadErr   error
	stopErr     error
	haltOnError bool
	panicOn     string
	startDelay  time.Duration
	starts      atomic.Int32
	stops       atomic.Int32
	level       string
}

func (f *fakeEngine) maybePanic(op string) {
	if f.panicOn == op {
		panic(op + " exploded")
	}
}

func (f *fakeEngine) Start(string) error {
	f.maybePanic("start")
	f.starts.Add(1)
	if f.startDelay > 0 {
		time.Sleep(f.startDelay)
	}
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	f.Infof("started")
	f.EmitState(hy2.EventStarted)
	return nil
}

func (f *fakeEngine) Reload(string) error {
	f.maybePanic("reload")
	if f.reloadErr != nil {
		if f.haltOnError {
			f.mu.Lock()
			f.running = false
			f.mu.Unlock()
		}
		return f.reloadErr
	}
	f.EmitState(hy2.EventReloaded)
	return nil
}

func (f *fakeEngine) Stop() error {
	f.maybePanic("stop")
	f.stops.Add(1)
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	f.EmitState(hy2.EventStopped)
	return f.stopErr
}

func (f *fakeEngine) Status() string {
	f.maybePanic("status")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return hy2.StatusRunning
	}
	return hy2.StatusStopped
}

func (f *fakeEngine) Version() string    { return "fake 1.0" }
func (f *fakeEngine) HealthJSON() string { return `{"fake":true}` }

func (f *fakeEngine) SetLogLevel(level string) {
	f.mu.Lock()
	f.level = level
	f.mu.Unlock()
	f.Callbacks.SetLogLevel(level)
}

var errBoom = errors.New("bind: address already in use")

// fixedClock keeps uptime at zero so health output is stable.
func fixedClock() time.Time { return time.Unix(1_700_000_000, 0) }

func newTestController(t *testing.T, e engine.Engine) (*Controller, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher(0)
	c := NewWithConfig(Config{Engine: e, Version: testInfo, Publisher: pub, Now: fixedClock})
	return c, pub
}

// recorder collects sink callbacks.
type recorder struct {
	mu     sync.Mutex
	logs   []string
	events []string
}

func (r *recorder) Log(level, msg string) {
	r.mu.Lock()
	r.logs = append(r.logs, level+"|"+msg)
	r.mu.Unlock()
}

func (r *recorder) OnEvent(name, data string) {
	r.mu.Lock()
	r.events = append(r.events, name)
	r.mu.Unlock()
}

func (r *recorder) eventNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) logLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}
