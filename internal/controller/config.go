package controller

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hy2core/internal/engine"
	"hy2core/internal/health"
	"hy2core/internal/sink"
	"hy2core/internal/telemetry"
	"hy2core/pkg/version"
)

// Config encapsulates everything a Controller is built from. Only Engine is
// required; the rest default to fresh per-controller instances.
type Config struct {
	Engine    engine.Engine
	Sinks     *sink.Registry
	Counters  *telemetry.Counters
	Version   version.Info
	Logger    *zerolog.Logger
	Publisher TransitionPublisher
	// Name labels this controller's state metric. Empty gets a generated
	// "ctl-" id so separate controllers never share a series.
	Name string
	// Now is the clock used for uptime and error stamps.
	Now func() time.Time
}

// New builds a controller around e with defaults for everything else.
func New(e engine.Engine) *Controller { return NewWithConfig(Config{Engine: e}) }

// NewWithConfig builds a controller from cfg, applying defaults.
func NewWithConfig(cfg Config) *Controller {
	c := &Controller{
		engine:    cfg.Engine,
		sinks:     cfg.Sinks,
		counters:  cfg.Counters,
		info:      cfg.Version,
		publisher: cfg.Publisher,
		now:       cfg.Now,
	}
	if c.name = cfg.Name; c.name == "" {
		c.name = "ctl-" + uuid.NewString()[:8]
	}
	if c.engine == nil {
		c.engine = missingEngine{}
	}
	if c.sinks == nil {
		c.sinks = sink.NewRegistry()
	}
	if c.counters == nil {
		c.counters = telemetry.NewCounters()
	}
	if c.info.IsZero() {
		c.info = version.Current()
	}
	if c.publisher == nil {
		c.publisher = noopPublisher{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "controller").Str("instance", c.name).Logger()
	} else {
		c.log = zerolog.Nop()
	}
	c.reporter = health.NewReporter(c.Running, c.info, c.counters).WithClock(c.now)
	telemetry.SetState(c.name, int(StateStopped))
	return c
}

var errNoEngine = errors.New("engine not configured")

// missingEngine stands in when no engine was supplied so every lifecycle
// call fails cleanly instead of dereferencing nil.
type missingEngine struct{}

func (missingEngine) Start(string) error                { return errNoEngine }
func (missingEngine) Reload(string) error               { return errNoEngine }
func (missingEngine) Stop() error                       { return nil }
func (missingEngine) Status() string                    { return "stopped" }
func (missingEngine) Version() string                   { return "" }
func (missingEngine) HealthJSON() string                { return "{}" }
func (missingEngine) SetLogLevel(string)                {}
func (missingEngine) SetLogSink(engine.LogCallback)     {}
func (missingEngine) SetEventSink(engine.EventCallback) {}
