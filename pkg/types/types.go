package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message. Engine failures carry the engine's text verbatim.
	// example: already running
	Error string `json:"error" example:"already running"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Controller state (stopped, starting, running, reloading, stopping).
	// example: running
	State string `json:"state" example:"running"`
	// Coarse status as reported by Core.Status: running or stopped.
	// example: running
	Status string `json:"status" example:"running"`
	// Identity line of the control plane.
	// example: HY2-Core 0.1.0 (hy2core)
	Version string `json:"version" example:"HY2-Core 0.1.0 (hy2core)"`
	// Version string reported by the engine itself.
	// example: hy2 quic-go
	EngineVersion string `json:"engine_version,omitempty" example:"hy2 quic-go"`
	// Active log threshold.
	// example: info
	LogLevel string `json:"log_level" example:"info"`
	// Seconds since the engine last started; 0 when stopped.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Last lifecycle error, if any.
	LastError string `json:"last_error,omitempty"`
	// Unix time of the last lifecycle error.
	// example: 1700000000
	LastErrorUnix int64 `json:"last_error_unix,omitempty" example:"1700000000"`
	// Number of completed start/reload/stop operations.
	// example: 3
	Operations uint64 `json:"operations" example:"3"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// OpResponse acknowledges a lifecycle request.
type OpResponse struct {
	// Status after the operation.
	// example: running
	Status string `json:"status" example:"running"`
}
