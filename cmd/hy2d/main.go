package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hy2core/internal/config"
	"hy2core/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "hy2d:", err)
		os.Exit(1)
	}
}

// flagValues mirrors the command line; only flags the user set override the file.
type flagValues struct {
	configPath     string
	addr           string
	engine         string
	engineConfig   string
	autoStart      bool
	watch          bool
	logLevel       string
	logFormat      string
	engineLogLevel string
	profilesDir    string
	corsOrigins    string
	processBin     string
	processArgs    string
}

func newRootCmd() *cobra.Command {
	fv := &flagValues{}
	// Flags with environment variable defaults
	defaultAddr := config.DefaultAddr
	if v := os.Getenv("HY2D_ADDR"); v != "" {
		defaultAddr = v
	}

	root := &cobra.Command{
		Use:           "hy2d",
		Short:         "hy2core daemon: drives a tunneling engine and serves the control API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			d, err := newDaemon(cfg, newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr))
			if err != nil {
				return err
			}
			return d.run(cmd.Context())
		},
	}

	f := root.Flags()
	f.StringVar(&fv.configPath, "config", os.Getenv("HY2D_CONFIG"), "Path to hy2d config (yaml|json|toml; defaults HY2D_CONFIG)")
	f.StringVar(&fv.addr, "addr", defaultAddr, "HTTP listen address (defaults HY2D_ADDR)")
	f.StringVar(&fv.engine, "engine", config.EngineHy2, "Engine: skeleton|process|hy2")
	f.StringVar(&fv.engineConfig, "engine-config", "", "Engine JSON config file")
	f.BoolVar(&fv.autoStart, "auto-start", false, "Start the engine with --engine-config on launch")
	f.BoolVar(&fv.watch, "watch", false, "Reload the engine when --engine-config changes")
	f.StringVar(&fv.logLevel, "log-level", "info", "Daemon log level: debug|info|warn|error")
	f.StringVar(&fv.logFormat, "log-format", "console", "Daemon log format: console|json")
	f.StringVar(&fv.engineLogLevel, "engine-log-level", "info", "Engine callback threshold: debug|info|warn|error")
	f.StringVar(&fv.profilesDir, "profiles-dir", "", "Directory of *.json engine profiles")
	f.StringVar(&fv.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	f.StringVar(&fv.processBin, "process-bin", "", "Engine binary for --engine=process")
	f.StringVar(&fv.processArgs, "process-args", "", "Comma-separated arguments; {config} is replaced by the config path")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build identity",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Current().Long())
		},
	})
	return root
}

// loadConfig merges the config file (if any) with explicitly set flags.
func loadConfig(cmd *cobra.Command, fv *flagValues) (config.Config, error) {
	var cfg config.Config
	if fv.configPath != "" {
		c, err := config.Load(fv.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	f := cmd.Flags()
	set := func(name string) bool { return f.Changed(name) || (name == "addr" && cfg.Addr == "") }
	if set("addr") {
		cfg.Addr = fv.addr
	}
	if set("engine") {
		cfg.Engine = fv.engine
	}
	if set("engine-config") {
		cfg.EngineConfig = fv.engineConfig
	}
	if set("auto-start") {
		cfg.AutoStart = fv.autoStart
	}
	if set("watch") {
		cfg.Watch = fv.watch
	}
	if set("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if set("log-format") {
		cfg.LogFormat = fv.logFormat
	}
	if set("engine-log-level") {
		cfg.EngineLogLevel = fv.engineLogLevel
	}
	if set("profiles-dir") {
		cfg.ProfilesDir = fv.profilesDir
	}
	if set("cors-origins") {
		cfg.CORS.Origins = splitCSV(fv.corsOrigins)
		cfg.CORS.Enabled = len(cfg.CORS.Origins) > 0
	}
	if set("process-bin") {
		cfg.Process.Bin = fv.processBin
	}
	if set("process-args") {
		cfg.Process.Args = splitCSV(fv.processArgs)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
