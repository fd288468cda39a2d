package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hy2core/pkg/hy2"
	"hy2core/pkg/types"
	"hy2core/pkg/version"
)

// Service defines the methods required by the HTTP API layer.
// *controller.Controller satisfies it.
type Service interface {
	Start(config string) error
	Reload(config string) error
	Stop()
	Status() string
	Running() bool
	HealthJSON() string
	EngineHealthJSON() string
	SetLogLevel(level string)
	LogLevel() string
	Snapshot() types.StatusResponse
}

// NewMux builds the control API router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// The event stream hijacks the connection and stays outside compression.
	r.Get("/v1/events", eventsHandler)

	r.Group(func(r chi.Router) {
		// Compression for JSON endpoints
		r.Use(middleware.Compress(5))

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Snapshot())
		})

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeRawJSON(w, http.StatusOK, svc.HealthJSON())
		})

		r.Get("/engine/health", func(w http.ResponseWriter, r *http.Request) {
			writeRawJSON(w, http.StatusOK, svc.EngineHealthJSON())
		})

		r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
			if svc.Running() {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ready"))
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(svc.Status()))
		})

		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			v := version.Current()
			writeJSON(w, http.StatusOK, types.VersionResponse{
				Version:   v.String(),
				Name:      v.Name,
				SDK:       v.Version,
				Engine:    v.Engine,
				Commit:    v.Commit,
				BuildTime: v.BuildTime,
			})
		})

		r.Route("/v1", func(r chi.Router) {
			r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				cfg, status, err := startConfig(w, r)
				if err != nil {
					writeJSONError(w, status, err.Error())
					logOp(r, "start", status, start, err)
					return
				}
				opResult(w, r, "start", start, svc, svc.Start(cfg))
			})

			r.Post("/reload", func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				cfg, err := readConfigBody(w, r)
				if err != nil {
					writeJSONError(w, http.StatusBadRequest, err.Error())
					logOp(r, "reload", http.StatusBadRequest, start, err)
					return
				}
				opResult(w, r, "reload", start, svc, svc.Reload(cfg))
			})

			r.Post("/stop", func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				svc.Stop()
				opResult(w, r, "stop", start, svc, nil)
			})

			r.Put("/log-level", func(w http.ResponseWriter, r *http.Request) {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
				var req types.LogLevelRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
					return
				}
				if !hy2.ValidLevel(req.Level) {
					writeJSONError(w, http.StatusBadRequest, "unknown log level: "+req.Level)
					return
				}
				svc.SetLogLevel(req.Level)
				writeJSON(w, http.StatusOK, types.LogLevelRequest{Level: svc.LogLevel()})
			})

			r.Get("/profiles", func(w http.ResponseWriter, r *http.Request) {
				if profiles == nil {
					writeJSONError(w, http.StatusNotFound, "profiles not configured")
					return
				}
				list, err := profiles.List()
				if err != nil {
					writeJSONError(w, http.StatusInternalServerError, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, types.ProfilesResponse{Profiles: list})
			})
		})
	})

	MountSwagger(r)

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func opResult(w http.ResponseWriter, r *http.Request, op string, start time.Time, svc Service, err error) {
	if err != nil {
		status := statusForError(err)
		writeJSONError(w, status, err.Error())
		logOp(r, op, status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.OpResponse{Status: svc.Status()})
	logOp(r, op, http.StatusOK, start, nil)
}

// startConfig resolves the config for POST /v1/start: a named profile when
// ?profile= is set, otherwise the request body.
func startConfig(w http.ResponseWriter, r *http.Request) (string, int, error) {
	name := r.URL.Query().Get("profile")
	if name == "" {
		cfg, err := readConfigBody(w, r)
		if err != nil {
			return "", http.StatusBadRequest, err
		}
		return cfg, 0, nil
	}
	if profiles == nil {
		return "", http.StatusNotFound, errors.New("profiles not configured")
	}
	cfg, err := profiles.Read(name)
	if err != nil {
		return "", statusForError(err), err
	}
	return cfg, 0, nil
}

// readConfigBody reads the engine config text. The engine validates it, so
// any JSON content type is accepted as is.
func readConfigBody(w http.ResponseWriter, r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return "", errors.New("Content-Type must be application/json")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	b, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return "", errors.New("request body too large")
		}
		return "", errors.New("failed to read body")
	}
	return string(b), nil
}

func writeRawJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
