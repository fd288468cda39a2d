package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hy2core/internal/config"
	"hy2core/internal/controller"
	"hy2core/internal/engine"
	"hy2core/internal/engine/hysteria"
	"hy2core/internal/engine/process"
	"hy2core/internal/engine/skeleton"
	"hy2core/internal/httpapi"
	"hy2core/internal/registry"
	"hy2core/internal/sink"
	"hy2core/internal/telemetry"
	"hy2core/pkg/hy2"
)

const shutdownTimeout = 5 * time.Second

type daemon struct {
	cfg  config.Config
	log  zerolog.Logger
	ctrl *controller.Controller
	hub  *sink.Hub
}

func newLogger(level, format string, w io.Writer) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(hy2.NormalizeLevel(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// newEngine builds the engine selected by cfg.Engine.
func newEngine(cfg config.Config, counters *telemetry.Counters, log zerolog.Logger) (engine.Engine, error) {
	switch cfg.Engine {
	case config.EngineSkeleton:
		return skeleton.New(), nil
	case config.EngineProcess:
		e := process.New(process.Options{
			Bin:          cfg.Process.Bin,
			Args:         cfg.Process.Args,
			Env:          cfg.Process.Env,
			ReloadSignal: cfg.Process.ReloadSignal,
			HealthURL:    cfg.Process.HealthURL,
			ReadyTimeout: config.Seconds(cfg.Process.ReadyTimeoutS),
			StopTimeout:  config.Seconds(cfg.Process.StopTimeoutS),
			WorkDir:      cfg.Process.WorkDir,
		})
		if rep := e.Preflight(); !rep.OK {
			log.Warn().Strs("errors", rep.Errors).Msg("engine preflight failed")
		}
		return e, nil
	case config.EngineHy2:
		return hysteria.New(hysteria.Options{
			DialTimeout: config.Seconds(cfg.Hy2.DialTimeoutS),
			KeepAlive:   config.Seconds(cfg.Hy2.KeepAliveS),
			IdleTimeout: config.Seconds(cfg.Hy2.IdleTimeoutS),
			Counters:    counters,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

func newDaemon(cfg config.Config, log zerolog.Logger) (*daemon, error) {
	counters := telemetry.NewCounters()
	eng, err := newEngine(cfg, counters, log)
	if err != nil {
		return nil, err
	}
	ctrl := controller.NewWithConfig(controller.Config{Engine: eng, Counters: counters, Logger: &log, Name: "hy2d"})

	hub := sink.NewHub(256)
	engLog := sink.NewZerologSink(log)
	ctrl.SetLogSink(sink.Tee{Logs: []hy2.LogSink{engLog, hub}})
	ctrl.SetEventSink(sink.Tee{Events: []hy2.EventSink{engLog, hub}})
	ctrl.SetLogLevel(cfg.EngineLogLevel)

	return &daemon{cfg: cfg, log: log, ctrl: ctrl, hub: hub}, nil
}

// handler configures the HTTP layer and returns the router.
func (d *daemon) handler() http.Handler {
	httpapi.SetLogger(d.log)
	httpapi.SetMaxBodyBytes(d.cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(d.cfg.CORS.Enabled, d.cfg.CORS.Origins, d.cfg.CORS.Methods, d.cfg.CORS.Headers)
	httpapi.SetEventHub(d.hub)
	if d.cfg.ProfilesDir != "" {
		httpapi.SetProfiles(registry.Dir{Path: d.cfg.ProfilesDir})
	}
	return httpapi.NewMux(d.ctrl)
}

func (d *daemon) registerCollector() {
	col := telemetry.NewCollector(d.ctrl.Counters(), d.ctrl.Running)
	if err := prometheus.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			d.log.Warn().Err(err).Msg("register telemetry collector")
		}
	}
}

// autoStart starts the engine with the configured file. Failures are logged;
// the API stays up so the engine can be started later.
func (d *daemon) autoStart() {
	cfgText, err := d.cfg.ReadEngineConfig()
	if err != nil {
		d.log.Error().Err(err).Msg("auto-start: read engine config")
		return
	}
	if err := d.ctrl.Start(cfgText); err != nil {
		d.log.Error().Err(err).Msg("auto-start failed")
	}
}

func (d *daemon) onConfigChange(contents string) {
	if !d.ctrl.Running() {
		d.log.Debug().Msg("engine config changed while stopped; not reloading")
		return
	}
	if err := d.ctrl.Reload(contents); err != nil {
		d.log.Error().Err(err).Msg("hot reload failed")
	}
}

// run serves until ctx is done, then shuts the server down and stops the engine.
func (d *daemon) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.Addr)
	if err != nil {
		return err
	}
	return d.serve(ctx, ln)
}

func (d *daemon) serve(ctx context.Context, ln net.Listener) error {
	httpapi.SetBaseContext(ctx)
	d.registerCollector()
	srv := &http.Server{Handler: d.handler(), ReadHeaderTimeout: 10 * time.Second}

	if d.cfg.AutoStart {
		d.autoStart()
	}
	defer d.ctrl.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.log.Info().Str("addr", ln.Addr().String()).Str("engine", d.cfg.Engine).Int("pid", os.Getpid()).Msg("hy2d listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			d.log.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	if d.cfg.Watch {
		w := &config.Watcher{Path: d.cfg.EngineConfig, OnChange: d.onConfigChange, Logger: d.log}
		g.Go(func() error { return w.Run(gctx) })
	}
	err := g.Wait()
	d.log.Info().Msg("hy2d stopped")
	return err
}
