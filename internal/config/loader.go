package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"hy2core/internal/common/fsutil"
	"hy2core/pkg/hy2"
)

// Engine kinds selectable by Config.Engine.
const (
	EngineSkeleton = "skeleton"
	EngineProcess  = "process"
	EngineHy2      = "hy2"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr           string `json:"addr" yaml:"addr" toml:"addr"`
	Engine         string `json:"engine" yaml:"engine" toml:"engine"`
	EngineConfig   string `json:"engine_config" yaml:"engine_config" toml:"engine_config"`
	AutoStart      bool   `json:"auto_start" yaml:"auto_start" toml:"auto_start"`
	Watch          bool   `json:"watch" yaml:"watch" toml:"watch"`
	LogLevel       string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat      string `json:"log_format" yaml:"log_format" toml:"log_format"`
	EngineLogLevel string `json:"engine_log_level" yaml:"engine_log_level" toml:"engine_log_level"`
	ProfilesDir    string `json:"profiles_dir" yaml:"profiles_dir" toml:"profiles_dir"`
	MaxBodyBytes   int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORS    CORS    `json:"cors" yaml:"cors" toml:"cors"`
	Process Process `json:"process" yaml:"process" toml:"process"`
	Hy2     Hy2     `json:"hy2" yaml:"hy2" toml:"hy2"`
}

type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Process configures the external-binary engine.
type Process struct {
	Bin           string   `json:"bin" yaml:"bin" toml:"bin"`
	Args          []string `json:"args" yaml:"args" toml:"args"`
	Env           []string `json:"env" yaml:"env" toml:"env"`
	ReloadSignal  string   `json:"reload_signal" yaml:"reload_signal" toml:"reload_signal"`
	HealthURL     string   `json:"health_url" yaml:"health_url" toml:"health_url"`
	ReadyTimeoutS int      `json:"ready_timeout_s" yaml:"ready_timeout_s" toml:"ready_timeout_s"`
	StopTimeoutS  int      `json:"stop_timeout_s" yaml:"stop_timeout_s" toml:"stop_timeout_s"`
	WorkDir       string   `json:"work_dir" yaml:"work_dir" toml:"work_dir"`
}

// Hy2 configures the in-process QUIC engine.
type Hy2 struct {
	DialTimeoutS int `json:"dial_timeout_s" yaml:"dial_timeout_s" toml:"dial_timeout_s"`
	KeepAliveS   int `json:"keepalive_s" yaml:"keepalive_s" toml:"keepalive_s"`
	IdleTimeoutS int `json:"idle_timeout_s" yaml:"idle_timeout_s" toml:"idle_timeout_s"`
}

// Seconds converts a seconds field to a duration; 0 stays 0.
func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Defaults.
const (
	DefaultAddr         = "127.0.0.1:9090"
	DefaultMaxBodyBytes = 1 << 20
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	// relative paths are resolved against the config file's directory
	base := filepath.Dir(path)
	cfg.EngineConfig = resolve(base, cfg.EngineConfig)
	cfg.ProfilesDir = resolve(base, cfg.ProfilesDir)
	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" {
		return p
	}
	if exp, err := fsutil.ExpandHome(p); err == nil {
		p = exp
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// ApplyDefaults fills unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Engine == "" {
		c.Engine = EngineHy2
	}
	if c.LogLevel == "" {
		c.LogLevel = hy2.LevelInfo
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.EngineLogLevel == "" {
		c.EngineLogLevel = hy2.LevelInfo
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineSkeleton, EngineHy2:
	case EngineProcess:
		if strings.TrimSpace(c.Process.Bin) == "" {
			return fmt.Errorf("process.bin is required for engine %q", EngineProcess)
		}
	default:
		return fmt.Errorf("unknown engine %q (want %s, %s or %s)", c.Engine, EngineSkeleton, EngineProcess, EngineHy2)
	}
	if !hy2.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if !hy2.ValidLevel(c.EngineLogLevel) {
		return fmt.Errorf("invalid engine_log_level %q", c.EngineLogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q (want console or json)", c.LogFormat)
	}
	if (c.AutoStart || c.Watch) && c.EngineConfig == "" {
		return fmt.Errorf("engine_config is required when auto_start or watch is set")
	}
	return nil
}

// ReadEngineConfig returns the contents of the engine config file.
func (c *Config) ReadEngineConfig() (string, error) {
	if c.EngineConfig == "" {
		return "", fmt.Errorf("engine_config not set")
	}
	b, err := os.ReadFile(c.EngineConfig)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
