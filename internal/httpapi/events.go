package httpapi

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const streamWriteTimeout = 5 * time.Second

// eventsHandler streams log and event callbacks to a websocket client as
// types.StreamMessage frames. Clients only read; anything they send is discarded.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	hub := eventHub
	if hub == nil {
		writeJSONError(w, http.StatusNotFound, "event stream not configured")
		return
	}
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
		// The API is loopback by default; CORS governs browser origins.
		InsecureSkipVerify: corsEnabled,
	})
	if err != nil {
		if zlog != nil {
			zlog.Warn().Err(err).Msg("event stream accept")
		}
		return
	}
	defer c.Close(websocket.StatusInternalError, "stream ended")

	sub := hub.Subscribe()
	defer sub.Close()
	defer inflight("/v1/events")()
	streamSubscribers.Inc()
	defer streamSubscribers.Dec()

	// CloseRead's context ends when the client goes away.
	ctx, cancel := joinContexts(serverBaseCtx, c.CloseRead(r.Context()))
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			if serverBaseCtx.Err() != nil {
				c.Close(websocket.StatusGoingAway, "server shutting down")
			}
			return
		case m, ok := <-sub.C:
			if !ok {
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(wctx, c, m)
			wcancel()
			if err != nil {
				return
			}
		}
	}
}
