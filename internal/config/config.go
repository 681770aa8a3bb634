// Package config loads regctl settings from a YAML file and REGCTL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joshuapare/regremote/pkg/types"
)

// Transport kinds.
const (
	TransportNative  = "native"
	TransportRegfile = "regfile"
)

// Limit profiles.
const (
	LimitsStandard = "standard"
	LimitsRelaxed  = "relaxed"
	LimitsStrict   = "strict"
)

// Log formats accepted by internal/logging.
var logFormats = []string{"auto", "json", "console"}

// Config is the complete regctl configuration.
type Config struct {
	Hive      string          `koanf:"hive"`
	Workers   int             `koanf:"workers"`
	Limits    string          `koanf:"limits"`
	Transport TransportConfig `koanf:"transport"`
	Connect   ConnectConfig   `koanf:"connect"`
	Probe     ProbeConfig     `koanf:"probe"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// TransportConfig selects how hosts are reached.
type TransportConfig struct {
	Kind        string `koanf:"kind"`
	SnapshotDir string `koanf:"snapshot_dir"` // regfile only
}

// ConnectConfig bounds the per-host connect retry.
type ConnectConfig struct {
	Attempts int           `koanf:"attempts"`
	Delay    time.Duration `koanf:"delay"`
}

// ProbeConfig controls the reachability check.
type ProbeConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Timeout  time.Duration `koanf:"timeout"`
	Attempts int           `koanf:"attempts"`
	Ports    []int         `koanf:"ports"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig names the Prometheus textfile written after a run.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Hive == "" {
		cfg.Hive = types.LocalMachine.String()
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Limits == "" {
		cfg.Limits = LimitsStandard
	}
	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = TransportNative
	}
	if cfg.Transport.SnapshotDir == "" {
		cfg.Transport.SnapshotDir = "."
	}
	if cfg.Connect.Attempts == 0 {
		cfg.Connect.Attempts = 1
	}
	if cfg.Connect.Delay == 0 {
		cfg.Connect.Delay = time.Second
	}
	if cfg.Probe.Timeout == 0 {
		cfg.Probe.Timeout = 2 * time.Second
	}
	if cfg.Probe.Attempts == 0 {
		cfg.Probe.Attempts = 1
	}
	if len(cfg.Probe.Ports) == 0 {
		cfg.Probe.Ports = []int{445, 135}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "auto"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := types.ParseHive(c.Hive); err != nil {
		return fmt.Errorf("hive: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.Limits {
	case LimitsStandard, LimitsRelaxed, LimitsStrict:
	default:
		return fmt.Errorf("limits must be %s, %s or %s, got %q", LimitsStandard, LimitsRelaxed, LimitsStrict, c.Limits)
	}
	switch c.Transport.Kind {
	case TransportNative:
	case TransportRegfile:
		if c.Transport.SnapshotDir == "" {
			return errors.New("transport.snapshot_dir is required for the regfile transport")
		}
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport.Kind, TransportNative, TransportRegfile)
	}
	if c.Connect.Attempts < 1 || c.Connect.Attempts > 10 {
		return fmt.Errorf("connect.attempts must be 1-10, got %d", c.Connect.Attempts)
	}
	if c.Connect.Delay < 0 {
		return errors.New("connect.delay must not be negative")
	}
	if c.Probe.Attempts < 1 || c.Probe.Attempts > 10 {
		return fmt.Errorf("probe.attempts must be 1-10, got %d", c.Probe.Attempts)
	}
	if c.Probe.Timeout <= 0 {
		return errors.New("probe.timeout must be positive")
	}
	for _, p := range c.Probe.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("invalid probe port: %d (must be 1-65535)", p)
		}
	}
	if !validFormat(c.Log.Format) {
		return fmt.Errorf("log.format must be one of %s, got %q", strings.Join(logFormats, ", "), c.Log.Format)
	}
	return nil
}

// ValueLimits returns the caller-side limits for the configured profile.
func (c *Config) ValueLimits() types.Limits {
	switch c.Limits {
	case LimitsRelaxed:
		return types.RelaxedLimits()
	case LimitsStrict:
		return types.StrictLimits()
	default:
		return types.DefaultLimits()
	}
}

func validFormat(f string) bool {
	for _, v := range logFormats {
		if f == v {
			return true
		}
	}
	return false
}
