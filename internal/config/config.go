package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds gate a sync attempt. Loaded once, immutable for the run.
type Thresholds struct {
	MinRSSIDbm     int `yaml:"min_rssi_dbm"`
	MaxLossPercent int `yaml:"max_loss_percent"`
	MaxLatencyMs   int `yaml:"max_latency_ms"`
}

// Timeouts bound every blocking external call. Each step has its own
// budget; exceeding it fails that step, never hangs the pipeline.
type Timeouts struct {
	ProbeSeconds int `yaml:"probe_seconds"` // per probe attempt
	MountSeconds int `yaml:"mount_seconds"`
	SyncSeconds  int `yaml:"sync_seconds"`
}

// Mount describes the best-effort remote filesystem attach.
type Mount struct {
	Enabled bool   `yaml:"enabled"`
	Point   string `yaml:"point"`
}

// Config is the static configuration for one invocation.
type Config struct {
	Interface   string     `yaml:"interface"`
	ProbeTarget string     `yaml:"probe_target"`
	ProbeCount  int        `yaml:"probe_count"`
	Profile     string     `yaml:"profile"`
	UnisonPath  string     `yaml:"unison_path"`
	UnisonDir   string     `yaml:"unison_dir"`
	LogPath     string     `yaml:"log_path"`
	LogFormat   string     `yaml:"log_format"` // "text" or "json"
	LockPath    string     `yaml:"lock_path"`
	Thresholds  Thresholds `yaml:"thresholds"`
	Timeouts    Timeouts   `yaml:"timeouts"`
	Mount       Mount      `yaml:"mount"`
}

// Log encoding names accepted in log_format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultConfig returns sensible defaults in case no configuration file is
// provided. UNISON_LOG and WIFI_IF are honored because the dashboard reads
// the same two variables.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}

	logPath := os.Getenv("UNISON_LOG")
	if logPath == "" {
		logPath = filepath.Join(home, "unison_backup.log")
	}
	iface := os.Getenv("WIFI_IF")
	if iface == "" {
		iface = "wlan0"
	}

	return Config{
		Interface:   iface,
		ProbeTarget: "nasa.gov",
		ProbeCount:  3,
		Profile:     "backup",
		UnisonPath:  "unison",
		UnisonDir:   filepath.Join(home, ".unison"),
		LogPath:     logPath,
		LogFormat:   FormatText,
		LockPath:    filepath.Join(os.TempDir(), "squirt-sync.lock"),
		Thresholds: Thresholds{
			MinRSSIDbm:     -75,
			MaxLossPercent: 20,
			MaxLatencyMs:   300,
		},
		Timeouts: Timeouts{
			ProbeSeconds: 2,
			MountSeconds: 15,
			SyncSeconds:  600,
		},
	}
}

// Load reads configuration from a yaml file. Missing files fall back to
// defaults; a present but unparseable file is an error.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Interface == "" {
		return errors.New("interface must not be empty")
	}
	if c.ProbeTarget == "" {
		return errors.New("probe_target must not be empty")
	}
	if c.ProbeCount <= 0 {
		c.ProbeCount = DefaultConfig().ProbeCount
	}
	if c.Profile == "" {
		return errors.New("profile must not be empty")
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		return fmt.Errorf("log_format %q: must be %q or %q", c.LogFormat, FormatText, FormatJSON)
	}
	if c.Thresholds.MaxLossPercent < 0 || c.Thresholds.MaxLossPercent > 100 {
		return fmt.Errorf("max_loss_percent %d: must be within 0-100", c.Thresholds.MaxLossPercent)
	}
	if c.Thresholds.MaxLatencyMs <= 0 {
		return fmt.Errorf("max_latency_ms %d: must be positive", c.Thresholds.MaxLatencyMs)
	}
	if c.Timeouts.ProbeSeconds <= 0 {
		c.Timeouts.ProbeSeconds = DefaultConfig().Timeouts.ProbeSeconds
	}
	if c.Timeouts.MountSeconds <= 0 {
		c.Timeouts.MountSeconds = DefaultConfig().Timeouts.MountSeconds
	}
	if c.Timeouts.SyncSeconds <= 0 {
		c.Timeouts.SyncSeconds = DefaultConfig().Timeouts.SyncSeconds
	}
	if c.LockPath == "" {
		c.LockPath = DefaultConfig().LockPath
	}
	if c.LogPath == "" {
		c.LogPath = DefaultConfig().LogPath
	}
	return nil
}

// ProbeTimeout is the per-attempt probe budget.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Timeouts.ProbeSeconds) * time.Second
}

// MountTimeout bounds the mount preparer.
func (c Config) MountTimeout() time.Duration {
	return time.Duration(c.Timeouts.MountSeconds) * time.Second
}

// SyncTimeout is the hard wall-clock budget for the replication tool.
func (c Config) SyncTimeout() time.Duration {
	return time.Duration(c.Timeouts.SyncSeconds) * time.Second
}
