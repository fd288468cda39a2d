// Package process supervises an external engine binary (sing-box,
// hysteria and similar). The configuration is written to a private file
// whose path replaces the {config} placeholder in the argument list.
package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"hy2core/internal/common/fsutil"
	"hy2core/internal/engine"
	"hy2core/pkg/hy2"
)

// ConfigPlaceholder in Options.Args is replaced by the config file path.
const ConfigPlaceholder = "{config}"

const (
	defaultReadyTimeout = 10 * time.Second
	defaultStopTimeout  = 2 * time.Second
	defaultSettle       = 300 * time.Millisecond
	stderrTailBytes     = 4096
)

// Options configure the supervised binary.
type Options struct {
	Bin  string
	Args []string
	// Env is appended to the daemon's environment.
	Env []string
	// ReloadSignal (e.g. "SIGHUP") is sent on reload. Empty means restart.
	ReloadSignal string
	// HealthURL, when set, must answer 2xx before the engine counts as started.
	HealthURL    string
	ReadyTimeout time.Duration
	StopTimeout  time.Duration
	// Settle is how long a process without HealthURL must survive after spawn.
	Settle time.Duration
	// WorkDir holds the per-run config directory. Empty uses os.TempDir.
	WorkDir string
}

// Engine implements engine.Engine by supervising one child process.
type Engine struct {
	engine.Callbacks

	opts       Options
	httpClient *http.Client

	// opMu serializes Start, Reload and Stop; mu guards the fields below.
	opMu     sync.Mutex
	mu       sync.Mutex
	proc     *procInfo
	dir      string
	cfgPath  string
	restarts int
	lastExit string
}

var _ engine.Engine = (*Engine)(nil)

type procInfo struct {
	cmd      *exec.Cmd
	pid      int
	started  time.Time
	done     chan struct{}
	waitErr  error
	ready    atomic.Bool
	stopping atomic.Bool
	tail     *tailBuffer
}

func (p *procInfo) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// New constructs a process engine, applying defaults.
func New(opts Options) *Engine {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}
	// Timeout=0: every request carries its own deadline.
	return &Engine{opts: opts, httpClient: &http.Client{Timeout: 0}}
}

func (e *Engine) Start(cfg string) error {
	if _, err := engine.ValidateConfig(cfg); err != nil {
		e.Errorf("start rejected: %v", err)
		e.EmitError(engine.CodeInvalidConfig, err.Error())
		return err
	}
	if strings.TrimSpace(e.opts.Bin) == "" {
		return errors.New("engine binary not configured")
	}
	if e.opts.ReloadSignal != "" {
		if _, err := parseSignal(e.opts.ReloadSignal); err != nil {
			return err
		}
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()
	if e.current() != nil {
		return errors.New("already running")
	}
	e.dropStaleDir()

	dir, err := os.MkdirTemp(e.opts.WorkDir, "hy2core-")
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := fsutil.WriteFileAtomic(path, []byte(cfg), 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	p, err := e.launch(path)
	if err != nil {
		_ = os.RemoveAll(dir)
		e.EmitError(engine.CodeProcessExit, err.Error())
		return err
	}

	e.mu.Lock()
	e.proc, e.dir, e.cfgPath, e.restarts = p, dir, path, 0
	e.mu.Unlock()
	e.Infof("engine process started pid=%d bin=%s", p.pid, filepath.Base(e.opts.Bin))
	e.EmitState(hy2.EventStarted)
	return nil
}

// Reload rewrites the config file, then signals or restarts the process.
// An invalid config is rejected before anything changes. A failed restart
// leaves the engine halted.
func (e *Engine) Reload(cfg string) error {
	if _, err := engine.ValidateConfig(cfg); err != nil {
		e.Warnf("reload rejected, keeping previous config: %v", err)
		e.EmitError(engine.CodeReload, err.Error())
		return err
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()
	p := e.current()
	if p == nil {
		e.dropStaleDir()
		return errors.New("not running")
	}
	e.mu.Lock()
	path, dir := e.cfgPath, e.dir
	e.mu.Unlock()
	if err := fsutil.WriteFileAtomic(path, []byte(cfg), 0o600); err != nil {
		return err
	}

	if e.opts.ReloadSignal != "" {
		sig, err := parseSignal(e.opts.ReloadSignal)
		if err != nil {
			return err
		}
		if err := p.cmd.Process.Signal(sig); err != nil {
			return fmt.Errorf("signal %s: %w", e.opts.ReloadSignal, err)
		}
		e.Infof("sent %s to pid=%d", e.opts.ReloadSignal, p.pid)
		e.EmitState(hy2.EventReloaded)
		return nil
	}

	e.terminate(p)
	e.mu.Lock()
	e.proc = nil
	e.mu.Unlock()
	np, err := e.launch(path)
	if err != nil {
		e.mu.Lock()
		e.dir, e.cfgPath = "", ""
		e.mu.Unlock()
		_ = os.RemoveAll(dir)
		err = fmt.Errorf("restart failed: %w", err)
		e.Errorf("%v", err)
		e.EmitError(engine.CodeReload, err.Error())
		e.EmitState(hy2.EventStopped)
		return err
	}
	e.mu.Lock()
	e.proc = np
	e.restarts++
	e.mu.Unlock()
	e.Infof("engine process restarted pid=%d", np.pid)
	e.EmitState(hy2.EventReloaded)
	return nil
}

func (e *Engine) Stop() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	p := e.current()
	e.mu.Lock()
	dir := e.dir
	e.proc, e.dir, e.cfgPath = nil, "", ""
	e.mu.Unlock()
	if dir != "" {
		defer os.RemoveAll(dir)
	}
	if p == nil {
		return nil
	}
	e.terminate(p)
	e.Infof("engine process stopped pid=%d", p.pid)
	e.EmitState(hy2.EventStopped)
	return nil
}

// dropStaleDir removes the config directory left behind by a process that
// exited on its own. Callers hold opMu and have seen current() == nil.
func (e *Engine) dropStaleDir() {
	e.mu.Lock()
	dir := e.dir
	e.proc, e.dir, e.cfgPath = nil, "", ""
	e.mu.Unlock()
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		e.Warnf("remove stale config dir: %v", err)
		return
	}
	e.Debugf("removed config dir of exited process")
}

func (e *Engine) current() *procInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proc != nil && e.proc.exited() {
		return nil
	}
	return e.proc
}

func (e *Engine) Status() string {
	if e.current() != nil {
		return hy2.StatusRunning
	}
	return hy2.StatusStopped
}

func (e *Engine) Version() string {
	return filepath.Base(e.opts.Bin) + " (process)"
}

// ConfigPath returns the config file of the running process.
func (e *Engine) ConfigPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfgPath
}

// PID returns the child's pid, 0 when not running.
func (e *Engine) PID() int {
	if p := e.current(); p != nil {
		return p.pid
	}
	return 0
}

type healthDoc struct {
	Running  bool   `json:"running"`
	Engine   string `json:"engine"`
	Bin      string `json:"bin"`
	PID      int    `json:"pid,omitempty"`
	UptimeS  int64  `json:"uptime_s,omitempty"`
	Restarts int    `json:"restarts"`
	LastExit string `json:"last_exit,omitempty"`
}

func (e *Engine) HealthJSON() string {
	p := e.current()
	e.mu.Lock()
	h := healthDoc{Engine: "process", Bin: e.opts.Bin, Restarts: e.restarts, LastExit: e.lastExit}
	e.mu.Unlock()
	if p != nil {
		h.Running = true
		h.PID = p.pid
		h.UptimeS = int64(time.Since(p.started).Seconds())
	}
	b, _ := json.Marshal(h)
	return string(b)
}

// launch spawns the binary and waits until it is ready.
func (e *Engine) launch(cfgPath string) (*procInfo, error) {
	p, err := e.spawn(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := e.waitReady(p); err != nil {
		e.terminate(p)
		return nil, err
	}
	p.ready.Store(true)
	return p, nil
}

func (e *Engine) spawn(cfgPath string) (*procInfo, error) {
	args := make([]string, len(e.opts.Args))
	for i, a := range e.opts.Args {
		args[i] = strings.ReplaceAll(a, ConfigPlaceholder, cfgPath)
	}
	cmd := exec.Command(e.opts.Bin, args...)
	if len(e.opts.Env) > 0 {
		cmd.Env = append(os.Environ(), e.opts.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", filepath.Base(e.opts.Bin), err)
	}
	p := &procInfo{
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		started: time.Now(),
		done:    make(chan struct{}),
		tail:    newTailBuffer(stderrTailBytes),
	}
	e.Debugf("spawned pid=%d args=%q", p.pid, args)

	var pumps sync.WaitGroup
	pumps.Add(2)
	engine.SafeGo(&e.Callbacks, "stdout pump", func() {
		defer pumps.Done()
		e.pump(stdout, nil)
	})
	engine.SafeGo(&e.Callbacks, "stderr pump", func() {
		defer pumps.Done()
		e.pump(stderr, p.tail)
	})
	engine.SafeGo(&e.Callbacks, "process wait", func() {
		// Wait must not run before the pipes are drained.
		pumps.Wait()
		p.waitErr = cmd.Wait()
		close(p.done)
		e.onExit(p)
	})
	return p, nil
}

func (e *Engine) waitReady(p *procInfo) error {
	if e.opts.HealthURL == "" {
		select {
		case <-p.done:
			return e.earlyExit(p)
		case <-time.After(e.opts.Settle):
			return nil
		}
	}
	deadline := time.Now().Add(e.opts.ReadyTimeout)
	for {
		if p.exited() {
			return e.earlyExit(p)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("engine not ready within %s: %s", e.opts.ReadyTimeout, e.opts.HealthURL)
		}
		if e.healthy(time.Second) {
			return nil
		}
		select {
		case <-p.done:
			return e.earlyExit(p)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (e *Engine) healthy(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.opts.HealthURL, nil)
	if err != nil {
		return false
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (e *Engine) earlyExit(p *procInfo) error {
	tail := strings.TrimSpace(p.tail.String())
	if p.waitErr != nil {
		return fmt.Errorf("engine exited before ready: %v; stderr tail: %s", p.waitErr, tail)
	}
	return fmt.Errorf("engine exited before ready; stderr tail: %s", tail)
}

// terminate asks the process to exit and kills it after StopTimeout.
func (e *Engine) terminate(p *procInfo) {
	p.stopping.Store(true)
	if p.exited() {
		return
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.done:
		return
	case <-time.After(e.opts.StopTimeout):
	}
	e.Warnf("pid=%d ignored SIGTERM for %s; killing", p.pid, e.opts.StopTimeout)
	_ = p.cmd.Process.Kill()
	select {
	case <-p.done:
	case <-time.After(e.opts.StopTimeout):
		e.Errorf("pid=%d did not exit after kill", p.pid)
	}
}

// onExit reports a process that died on its own after becoming ready.
func (e *Engine) onExit(p *procInfo) {
	status := "exit status 0"
	if p.waitErr != nil {
		status = p.waitErr.Error()
	}
	e.mu.Lock()
	e.lastExit = status
	e.mu.Unlock()
	if p.stopping.Load() || !p.ready.Load() {
		return
	}
	msg := fmt.Sprintf("engine process pid=%d exited unexpectedly: %s", p.pid, status)
	if tail := strings.TrimSpace(p.tail.String()); tail != "" {
		msg += "; stderr tail: " + tail
	}
	e.Errorf("%s", msg)
	e.EmitError(engine.CodeProcessExit, msg)
	e.EmitState(hy2.EventStopped)
}

var signals = map[string]os.Signal{
	"SIGHUP":  syscall.SIGHUP,
	"SIGINT":  syscall.SIGINT,
	"SIGQUIT": syscall.SIGQUIT,
	"SIGTERM": syscall.SIGTERM,
}

func parseSignal(name string) (os.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	if s, ok := signals[n]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unsupported reload signal %q", name)
}
