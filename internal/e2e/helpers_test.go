package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"hy2core/internal/controller"
	"hy2core/internal/engine"
	"hy2core/internal/httpapi"
	"hy2core/internal/sink"
	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
)

const validCfg = `{"inbounds":[],"outbounds":[],"route":{}}`

// newServer wires an engine into a controller, a live hub and the HTTP API.
func newServer(t *testing.T, eng engine.Engine, counters *telemetry.Counters) (*httptest.Server, *controller.Controller, *sink.Hub) {
	t.Helper()
	ctrl := controller.NewWithConfig(controller.Config{Engine: eng, Counters: counters})
	hub := sink.NewHub(64)
	httpapi.SetEventHub(hub)
	srv := httptest.NewServer(httpapi.NewMux(ctrl))
	t.Cleanup(func() {
		srv.Close()
		ctrl.Stop()
		httpapi.SetEventHub(nil)
	})
	return srv, ctrl, hub
}

// eventLog records event names in arrival order.
type eventLog struct {
	mu    sync.Mutex
	names []string
}

func (e *eventLog) OnEvent(name, _ string) {
	e.mu.Lock()
	e.names = append(e.names, name)
	e.mu.Unlock()
}

func (e *eventLog) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.names...)
}

var _ hy2.EventSink = (*eventLog)(nil)

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
