// Package skeleton is an in-process engine without a network stack. It
// validates and keeps the configuration and reports lifecycle events, which
// makes it the engine of choice for tests and dry runs.
package skeleton

import (
	"encoding/json"
	"errors"
	"sync"

	"hy2core/internal/engine"
	"hy2core/pkg/hy2"
	"hy2core/pkg/version"
)

// Engine implements engine.Engine.
type Engine struct {
	engine.Callbacks

	mu      sync.Mutex
	running bool
	cfg     []byte
	reloads int
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine { return &Engine{} }

func (e *Engine) Start(cfg string) error {
	if _, err := engine.ValidateConfig(cfg); err != nil {
		e.Errorf("start rejected: %v", err)
		e.EmitError(engine.CodeInvalidConfig, err.Error())
		return err
	}
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("already running")
	}
	e.running = true
	e.cfg = []byte(cfg)
	e.reloads = 0
	e.mu.Unlock()

	e.Infof("HY2 core started; config accepted (%d bytes)", len(cfg))
	e.EmitState(hy2.EventStarted)
	return nil
}

// Reload swaps the stored config. An invalid config is rejected and the
// previous one stays active.
func (e *Engine) Reload(cfg string) error {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return errors.New("not running")
	}
	if _, err := engine.ValidateConfig(cfg); err != nil {
		e.Warnf("reload rejected, keeping previous config: %v", err)
		e.EmitError(engine.CodeReload, err.Error())
		return err
	}
	e.mu.Lock()
	e.cfg = []byte(cfg)
	e.reloads++
	e.mu.Unlock()

	e.Infof("config reloaded")
	e.EmitState(hy2.EventReloaded)
	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.mu.Unlock()

	e.Infof("HY2 core stopped")
	e.EmitState(hy2.EventStopped)
	return nil
}

func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return hy2.StatusRunning
	}
	return hy2.StatusStopped
}

func (e *Engine) Version() string { return "skeleton " + version.SDKVersion }

// Config returns a copy of the active configuration.
func (e *Engine) Config() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.cfg)
}

func (e *Engine) HealthJSON() string {
	e.mu.Lock()
	h := struct {
		Running     bool   `json:"running"`
		Engine      string `json:"engine"`
		ConfigBytes int    `json:"config_bytes"`
		Reloads     int    `json:"reloads"`
	}{e.running, "skeleton", len(e.cfg), e.reloads}
	e.mu.Unlock()
	b, _ := json.Marshal(h)
	return string(b)
}
