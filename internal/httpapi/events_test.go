package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"hy2core/internal/sink"
	"hy2core/pkg/types"
)

func TestEventsDisabledWithoutHub(t *testing.T) {
	h, _ := newTestMux(t)
	if w := do(t, h, http.MethodGet, "/v1/events", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestEventsStreamDeliversCallbacks(t *testing.T) {
	hub := sink.NewHub(16)
	SetEventHub(hub)
	t.Cleanup(func() { SetEventHub(nil) })

	h, c := newTestMux(t)
	c.SetLogSink(hub)
	c.SetEventSink(hub)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/events", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := c.Start(validCfg); err != nil {
		t.Fatalf("start: %v", err)
	}

	for {
		var m types.StreamMessage
		if err := wsjson.Read(ctx, conn, &m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.ID == "" || m.Time.IsZero() {
			t.Fatalf("frame missing id/time: %+v", m)
		}
		if m.Kind == types.StreamKindEvent && m.Name == "started" {
			return
		}
	}
}

func TestEventsStreamEndsOnShutdown(t *testing.T) {
	hub := sink.NewHub(4)
	SetEventHub(hub)
	base, stop := context.WithCancel(context.Background())
	SetBaseContext(base)
	t.Cleanup(func() {
		SetEventHub(nil)
		SetBaseContext(nil)
	})

	h, _ := newTestMux(t)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/events", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	stop()
	var m types.StreamMessage
	err = wsjson.Read(ctx, conn, &m)
	if websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.Fatalf("expected going-away close, got %v", err)
	}
}
