// Package client drives a running hy2d daemon over its HTTP API.
//
// Client implements hy2.Core, so code written against the in-process
// controller can be pointed at a daemon instead. Log and event sinks are fed
// from the daemon's /v1/events websocket stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"hy2core/pkg/hy2"
	"hy2core/pkg/types"
)

// DefaultTimeout bounds calls made through the context-free hy2.Core methods.
const DefaultTimeout = 30 * time.Second

// offlineHealth is returned by HealthJSON when the daemon cannot be reached.
const offlineHealth = `{"running":false,"engine":"","version":""}`

// APIError is a non-2xx reply from the daemon. Error returns the daemon's
// message unchanged, so engine failures read the same as in-process.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// IsConflict reports whether err is a 409 (already running / not running).
func IsConflict(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusConflict
}

// Client talks to one daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	mu        sync.Mutex
	logSink   hy2.LogSink
	eventSink hy2.EventSink
	stream    context.CancelFunc
	streamErr func(error)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithTimeout sets the per-call timeout used by the context-free methods.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithStreamErrorHandler is called when the event stream drops.
func WithStreamErrorHandler(fn func(error)) Option { return func(c *Client) { c.streamErr = fn } }

// New returns a client for baseURL, e.g. "http://127.0.0.1:9090".
func New(baseURL string, opts ...Option) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Deadlines come from contexts.
		httpClient: &http.Client{Transport: tr},
		timeout:    DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ hy2.Core = (*Client)(nil)

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// do sends a request and decodes a JSON reply into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*string); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*raw = string(b)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e types.ErrorResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// StartContext starts the engine with config.
func (c *Client) StartContext(ctx context.Context, config string) error {
	return c.do(ctx, http.MethodPost, "/v1/start", strings.NewReader(config), nil)
}

// StartProfile starts the engine with a profile stored on the daemon.
func (c *Client) StartProfile(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/v1/start?profile="+url.QueryEscape(name), nil, nil)
}

// ReloadContext applies config to the running engine.
func (c *Client) ReloadContext(ctx context.Context, config string) error {
	return c.do(ctx, http.MethodPost, "/v1/reload", strings.NewReader(config), nil)
}

// StopContext stops the engine.
func (c *Client) StopContext(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/stop", nil, nil)
}

// Snapshot returns the daemon's detailed status.
func (c *Client) Snapshot(ctx context.Context) (types.StatusResponse, error) {
	var st types.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

// VersionInfo returns the daemon's build identity.
func (c *Client) VersionInfo(ctx context.Context) (types.VersionResponse, error) {
	var v types.VersionResponse
	err := c.do(ctx, http.MethodGet, "/version", nil, &v)
	return v, err
}

// Health returns the health JSON document.
func (c *Client) Health(ctx context.Context) (string, error) {
	var s string
	err := c.do(ctx, http.MethodGet, "/healthz", nil, &s)
	return strings.TrimSpace(s), err
}

// EngineHealth returns the engine's own health document.
func (c *Client) EngineHealth(ctx context.Context) (string, error) {
	var s string
	err := c.do(ctx, http.MethodGet, "/engine/health", nil, &s)
	return strings.TrimSpace(s), err
}

// Profiles lists the daemon's stored engine configs.
func (c *Client) Profiles(ctx context.Context) ([]types.Profile, error) {
	var p types.ProfilesResponse
	err := c.do(ctx, http.MethodGet, "/v1/profiles", nil, &p)
	return p.Profiles, err
}

// SetLogLevelContext changes the daemon's threshold and returns the
// normalized level now in effect.
func (c *Client) SetLogLevelContext(ctx context.Context, level string) (string, error) {
	b, err := json.Marshal(types.LogLevelRequest{Level: level})
	if err != nil {
		return "", err
	}
	var out types.LogLevelRequest
	err = c.do(ctx, http.MethodPut, "/v1/log-level", bytes.NewReader(b), &out)
	return out.Level, err
}

func (c *Client) Start(config string) error {
	ctx, cancel := c.ctx()
	defer cancel()
	return c.StartContext(ctx, config)
}

func (c *Client) Reload(config string) error {
	ctx, cancel := c.ctx()
	defer cancel()
	return c.ReloadContext(ctx, config)
}

// Stop is best effort; use StopContext to observe transport errors.
func (c *Client) Stop() {
	ctx, cancel := c.ctx()
	defer cancel()
	_ = c.StopContext(ctx)
}

// Status returns "stopped" when the daemon is unreachable.
func (c *Client) Status() string {
	ctx, cancel := c.ctx()
	defer cancel()
	st, err := c.Snapshot(ctx)
	if err != nil || st.Status != hy2.StatusRunning {
		return hy2.StatusStopped
	}
	return hy2.StatusRunning
}

// Version returns the daemon's identity line, or "" when unreachable.
func (c *Client) Version() string {
	ctx, cancel := c.ctx()
	defer cancel()
	v, err := c.VersionInfo(ctx)
	if err != nil {
		return ""
	}
	return v.Version
}

func (c *Client) HealthJSON() string {
	ctx, cancel := c.ctx()
	defer cancel()
	s, err := c.Health(ctx)
	if err != nil || s == "" {
		return offlineHealth
	}
	return s
}

// SetLogLevel ignores unknown levels, as the daemon does.
func (c *Client) SetLogLevel(level string) {
	if !hy2.ValidLevel(level) {
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, _ = c.SetLogLevelContext(ctx, level)
}
