package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"hy2core/pkg/hy2"
	"hy2core/pkg/types"
)

const streamRetry = time.Second

// Subscribe reads the daemon's /v1/events stream and calls fn for every
// frame until ctx ends or the connection drops.
func (c *Client) Subscribe(ctx context.Context, fn func(types.StreamMessage)) error {
	u := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/v1/events"
	conn, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: c.httpClient})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	for {
		var m types.StreamMessage
		if err := wsjson.Read(ctx, conn, &m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(m)
	}
}

// SetLogSink routes daemon log frames to s; nil clears it. The daemon's log
// threshold applies.
func (c *Client) SetLogSink(s hy2.LogSink) {
	c.mu.Lock()
	c.logSink = s
	c.mu.Unlock()
	c.syncStream()
}

// SetEventSink routes daemon event frames to s; nil clears it.
func (c *Client) SetEventSink(s hy2.EventSink) {
	c.mu.Lock()
	c.eventSink = s
	c.mu.Unlock()
	c.syncStream()
}

// Close ends the background event stream, if any.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		c.stream()
		c.stream = nil
	}
}

// syncStream keeps one background stream open while any sink is set.
func (c *Client) syncStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	want := c.logSink != nil || c.eventSink != nil
	switch {
	case want && c.stream == nil:
		ctx, cancel := context.WithCancel(context.Background())
		c.stream = cancel
		go c.runStream(ctx)
	case !want && c.stream != nil:
		c.stream()
		c.stream = nil
	}
}

func (c *Client) runStream(ctx context.Context) {
	for {
		err := c.Subscribe(ctx, c.route)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("event stream closed")
		}
		if c.streamErr != nil {
			c.streamErr(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(streamRetry):
		}
	}
}

func (c *Client) route(m types.StreamMessage) {
	c.mu.Lock()
	ls, es := c.logSink, c.eventSink
	c.mu.Unlock()
	switch m.Kind {
	case types.StreamKindLog:
		if ls != nil {
			ls.Log(m.Level, m.Message)
		}
	case types.StreamKindEvent:
		if es != nil {
			es.OnEvent(m.Name, m.Data)
		}
	}
}
