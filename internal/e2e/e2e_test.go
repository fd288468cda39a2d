package e2e

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"hy2core/internal/client"
	"hy2core/internal/engine/hysteria"
	"hy2core/internal/engine/skeleton"
	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
	"hy2core/pkg/types"
)

func TestE2E_SkeletonScenario(t *testing.T) {
	srv, ctrl, _ := newServer(t, skeleton.New(), nil)
	ev := &eventLog{}
	ctrl.SetEventSink(ev)

	resp, body := httpPostJSON(t, srv.URL+"/v1/start", []byte(validCfg))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d %s", resp.StatusCode, body)
	}
	resp, body = httpGet(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(string(body), `{"running":true,"engine":"hy2core","version":"0.1.0"`) {
		t.Fatalf("healthz: %d %s", resp.StatusCode, body)
	}

	resp, _ = httpPostJSON(t, srv.URL+"/v1/reload", []byte(validCfg))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload: %d", resp.StatusCode)
	}
	resp, _ = httpPostJSON(t, srv.URL+"/v1/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: %d", resp.StatusCode)
	}

	want := []string{hy2.EventStarted, hy2.EventReloaded, hy2.EventStopped}
	got := ev.list()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events=%v want %v", got, want)
	}

	resp, body = httpGet(t, srv.URL+"/healthz")
	var h map[string]any
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("json: %v", err)
	}
	if h["running"] != false {
		t.Fatalf("health after stop: %s", body)
	}
	if _, ok := h["uptime_s"]; ok {
		t.Fatalf("uptime reported while stopped: %s", body)
	}
}

func TestE2E_InvalidStartLeavesStopped(t *testing.T) {
	srv, ctrl, _ := newServer(t, skeleton.New(), nil)
	resp, body := httpPostJSON(t, srv.URL+"/v1/start", []byte(`{"inbounds":{}}`))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var e types.ErrorResponse
	_ = json.Unmarshal(body, &e)
	if !strings.Contains(e.Error, "inbounds must be an array") {
		t.Fatalf("engine text not passed through: %q", e.Error)
	}
	if ctrl.Status() != hy2.StatusStopped {
		t.Fatalf("status=%s", ctrl.Status())
	}
	resp, body = httpGet(t, srv.URL+"/status")
	var st types.StatusResponse
	_ = json.Unmarshal(body, &st)
	if st.LastError == "" || st.LastErrorUnix == 0 {
		t.Fatalf("last error not recorded: %+v", st)
	}
}

func TestE2E_ClientOverHubStream(t *testing.T) {
	srv, ctrl, hub := newServer(t, skeleton.New(), nil)
	ctrl.SetLogSink(hub)
	ctrl.SetEventSink(hub)

	c := client.New(srv.URL, client.WithTimeout(5*time.Second))
	defer c.Close()
	ev := &eventLog{}
	c.SetEventSink(ev)

	deadline := time.Now().Add(3 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var core hy2.Core = c
	if err := core.Start(validCfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := core.Reload(validCfg); err != nil {
		t.Fatalf("reload: %v", err)
	}
	core.Stop()

	deadline = time.Now().Add(3 * time.Second)
	for len(ev.list()) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("events over stream=%v", ev.list())
		}
		time.Sleep(10 * time.Millisecond)
	}
	got := strings.Join(ev.list(), ",")
	if got != "started,reloaded,stopped" {
		t.Fatalf("events=%s", got)
	}
}

func TestE2E_Hy2EngineIdleWithoutOutbound(t *testing.T) {
	counters := telemetry.NewCounters()
	eng := hysteria.New(hysteria.Options{Counters: counters})
	srv, ctrl, _ := newServer(t, eng, counters)

	resp, body := httpPostJSON(t, srv.URL+"/v1/start", []byte(`{"outbounds":[{"type":"direct"}]}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d %s", resp.StatusCode, body)
	}
	_, body = httpGet(t, srv.URL+"/engine/health")
	if !strings.Contains(string(body), `"running":true`) {
		t.Fatalf("engine health: %s", body)
	}
	if !strings.Contains(string(body), `"connected":false`) {
		t.Fatalf("idle engine reports a session: %s", body)
	}

	resp, body = httpPostJSON(t, srv.URL+"/v1/reload", []byte(`{"outbounds":[{"type":"hysteria2","server":""}]}`))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid reload: %d %s", resp.StatusCode, body)
	}
	if ctrl.Status() != hy2.StatusRunning {
		t.Fatalf("invalid reload must keep the engine running")
	}
}
