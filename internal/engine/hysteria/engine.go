// Package hysteria is an in-process engine that keeps a QUIC session to the
// hysteria2 server named in the configuration. It measures the handshake,
// publishes session facts to the telemetry counters and re-establishes the
// session with jittered backoff when it drops.
package hysteria

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"hy2core/internal/engine"
	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultKeepAlive   = 10 * time.Second
	defaultIdleTimeout = 30 * time.Second
)

// Options tune the engine. Zero values get defaults.
type Options struct {
	DialTimeout time.Duration
	KeepAlive   time.Duration
	IdleTimeout time.Duration
	// Counters receive session telemetry; share them with the health reporter.
	Counters *telemetry.Counters
	Dialer   Dialer
}

// Engine implements engine.Engine.
type Engine struct {
	engine.Callbacks

	opts       Options
	counters   *telemetry.Counters
	newBackoff func() *backoff

	// opMu serializes Start, Reload and Stop; mu guards the fields below.
	opMu      sync.Mutex
	mu        sync.Mutex
	running   bool
	outbound  *Outbound
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
	lastErr   string
}

var _ engine.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = NewQUICDialer(opts.KeepAlive, opts.IdleTimeout)
	}
	c := opts.Counters
	if c == nil {
		c = telemetry.NewCounters()
	}
	return &Engine{opts: opts, counters: c, newBackoff: newBackoff}
}

func (e *Engine) Start(cfg string) error {
	out, err := ParseConfig(cfg)
	if err != nil {
		e.Errorf("start rejected: %v", err)
		e.EmitError(engine.CodeInvalidConfig, err.Error())
		return err
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("already running")
	}
	e.running = true
	e.outbound = out
	e.lastErr = ""
	e.mu.Unlock()

	e.counters.Reset()
	e.launch(out)
	if out == nil {
		e.Warnf("no %s outbound configured; engine idle", OutboundType)
	} else {
		e.Infof("HY2 core started; outbound %s", out.Name())
	}
	e.EmitState(hy2.EventStarted)
	return nil
}

// Reload replaces the outbound. An invalid config leaves the current
// session untouched.
func (e *Engine) Reload(cfg string) error {
	out, err := ParseConfig(cfg)
	if err != nil {
		e.Warnf("reload rejected, keeping previous config: %v", err)
		e.EmitError(engine.CodeReload, err.Error())
		return err
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()
	if e.Status() != hy2.StatusRunning {
		return errors.New("not running")
	}
	e.halt()
	e.mu.Lock()
	e.outbound = out
	e.mu.Unlock()
	e.launch(out)
	e.Infof("config reloaded")
	e.EmitState(hy2.EventReloaded)
	return nil
}

func (e *Engine) Stop() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	if e.Status() != hy2.StatusRunning {
		return nil
	}
	e.halt()
	e.mu.Lock()
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

func (e *Engine) Version() string { return "hysteria2 (quic-go)" }

type healthDoc struct {
	Running    bool   `json:"running"`
	Engine     string `json:"engine"`
	Outbound   string `json:"outbound,omitempty"`
	Connected  bool   `json:"connected"`
	RttMs      int64  `json:"rtt_ms,omitempty"`
	ALPN       string `json:"alpn,omitempty"`
	Reconnects uint32 `json:"reconnects,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

func (e *Engine) HealthJSON() string {
	e.mu.Lock()
	h := healthDoc{Running: e.running, Engine: OutboundType, Connected: e.connected, LastError: e.lastErr}
	if e.outbound != nil {
		h.Outbound = e.outbound.Name()
	}
	e.mu.Unlock()
	if h.Connected {
		h.RttMs = e.counters.QuicRttMs.Load()
		_, h.ALPN = e.counters.Identity()
	}
	h.Reconnects = e.counters.Reconnects.Load()
	b, _ := json.Marshal(h)
	return string(b)
}

// launch starts the supervisor for out. Callers hold opMu.
func (e *Engine) launch(out *Outbound) {
	if out == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.mu.Lock()
	e.cancel, e.done = cancel, done
	e.mu.Unlock()
	engine.SafeGo(&e.Callbacks, "session supervisor", func() {
		defer close(done)
		e.supervise(ctx, out)
	})
}

// halt stops the supervisor and waits for it. Callers hold opMu.
func (e *Engine) halt() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.setConnected(false)
}

func (e *Engine) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *Engine) recordFailure(err error) {
	msg := "session closed"
	if err != nil {
		msg = err.Error()
	}
	e.mu.Lock()
	e.lastErr = msg
	e.mu.Unlock()
	e.counters.RecordError(time.Now())
}

type retryNotice struct {
	Reason  string `json:"reason"`
	Attempt int    `json:"attempt"`
	NextMs  int64  `json:"next_ms"`
}

func (e *Engine) supervise(ctx context.Context, out *Outbound) {
	tlsConf := &tls.Config{
		ServerName:         out.SNI(),
		NextProtos:         out.NextProtos(),
		InsecureSkipVerify: out.TLS.Insecure,
		MinVersion:         tls.VersionTLS13,
	}
	b := e.newBackoff()
	attempt := 0
	for {
		dctx, cancel := context.WithTimeout(ctx, e.opts.DialTimeout)
		begin := time.Now()
		sess, err := e.opts.Dialer.Dial(dctx, out.Addr(), tlsConf)
		cancel()
		if ctx.Err() != nil {
			if sess != nil {
				_ = sess.Close()
			}
			return
		}

		var reason string
		if err != nil {
			reason = err.Error()
			e.recordFailure(err)
			e.EmitError(engine.CodeDial, reason)
		} else {
			rtt := time.Since(begin)
			attempt = 0
			b.reset()
			e.counters.QuicRttMs.Store(rtt.Milliseconds())
			e.counters.SetIdentity(out.SNI(), sess.ALPN())
			e.setConnected(true)
			e.Infof("session established to %s (rtt %dms, alpn %q)", out.Addr(), rtt.Milliseconds(), sess.ALPN())

			select {
			case <-ctx.Done():
				_ = sess.Close()
				return
			case <-sess.Done():
			}
			e.setConnected(false)
			serr := sess.Err()
			e.recordFailure(serr)
			reason = "session closed"
			if serr != nil {
				reason = serr.Error()
			}
		}

		attempt++
		d := b.next()
		e.counters.Reconnects.Add(1)
		e.counters.LastBackoffMs.Store(d.Milliseconds())
		e.Warnf("%s: %s; reconnecting in %s", out.Name(), reason, d.Round(time.Millisecond))
		e.EmitJSON(hy2.EventWarning, retryNotice{Reason: reason, Attempt: attempt, NextMs: d.Milliseconds()})
		if !sleep(ctx, d) {
			return
		}
	}
}
