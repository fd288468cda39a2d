package types

import "time"

// VersionResponse is returned by GET /version.
type VersionResponse struct {
	// example: HY2-Core 0.1.0 (hy2core)
	Version   string `json:"version" example:"HY2-Core 0.1.0 (hy2core)"`
	Name      string `json:"name"`
	SDK       string `json:"sdk_version"`
	Engine    string `json:"engine"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// LogLevelRequest is the body of PUT /v1/log-level.
type LogLevelRequest struct {
	// One of debug, info, warn, error.
	// example: debug
	Level string `json:"level" example:"debug"`
}

// Stream message kinds.
const (
	StreamKindLog   = "log"
	StreamKindEvent = "event"
)

// StreamMessage is one frame on the /v1/events websocket.
type StreamMessage struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	Time time.Time `json:"time"`
	// Set for log frames.
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
	// Set for event frames. Data is the engine's JSON text.
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"`
}
