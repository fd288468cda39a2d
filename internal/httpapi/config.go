package httpapi

import (
	"hy2core/internal/sink"
	"hy2core/pkg/types"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// ProfileSource lists and reads named engine configurations.
type ProfileSource interface {
	List() ([]types.Profile, error)
	Read(name string) (string, error)
}

var profiles ProfileSource

// SetProfiles enables /v1/profiles and POST /v1/start?profile=name. nil disables.
func SetProfiles(p ProfileSource) { profiles = p }

var eventHub *sink.Hub

// SetEventHub enables the /v1/events stream. nil disables.
func SetEventHub(h *sink.Hub) { eventHub = h }
