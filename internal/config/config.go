// Package config loads the coordinator's own runtime configuration
// (ports, profile directory, backend URLs) — distinct from the profile
// loader, which parses the domain/policy model the decision pipeline
// evaluates.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TransportConfig controls session-level defaults applied to every
// paired panel this coordinator dials out to, plus this process's own
// diagnostic HTTP listen address (self-health, not panel traffic — the
// coordinator is always the dialer toward panels, never a listener for
// them).
type TransportConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	PingInterval time.Duration `yaml:"ping_interval"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
}

// TraceConfig controls decision tracing.
type TraceConfig struct {
	Enabled        bool    `yaml:"enabled"`
	SampleRateHigh float64 `yaml:"sample_rate_high"`
	SampleRateLow  float64 `yaml:"sample_rate_low"`
	BufferSize     int     `yaml:"buffer_size"`
}

// StorageConfig names the optional backing services. Empty URLs
// disable the corresponding feature rather than failing startup.
type StorageConfig struct {
	PostgresURL string `yaml:"postgres_url"`
	RedisURL    string `yaml:"redis_url"`
}

// SecretBackendConfig selects the paired-secret store backend.
type SecretBackendConfig struct {
	Backend      string `yaml:"backend"` // "1password" | "local" | "auto"
	LocalPath    string `yaml:"local_path"`
	OnePasswordVaultID string `yaml:"onepassword_vault_id"`
}

// Config is the coordinator's top-level runtime configuration.
type Config struct {
	ProfileDir string              `yaml:"profile_dir"`
	Transport  TransportConfig     `yaml:"transport"`
	Trace      TraceConfig         `yaml:"trace"`
	Storage    StorageConfig       `yaml:"storage"`
	Secrets    SecretBackendConfig `yaml:"secrets"`
	Debug      bool                `yaml:"debug"`
}

// DefaultConfig returns the coordinator's zero-configuration defaults.
func DefaultConfig() Config {
	return Config{
		ProfileDir: "./profile",
		Transport: TransportConfig{
			ListenAddr:   ":8443",
			PingInterval: 30 * time.Second,
			PingTimeout:  10 * time.Second,
		},
		Trace: TraceConfig{
			Enabled:        true,
			SampleRateHigh: 1.0,
			SampleRateLow:  0.1,
			BufferSize:     256,
		},
		Secrets: SecretBackendConfig{
			Backend:   "local",
			LocalPath: "./secrets.json",
		},
	}
}

// LoadFromFile reads and parses a YAML config file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides overlays TRESTLE_-prefixed environment variables
// onto cfg, mirroring the agent's env-override convention.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TRESTLE_PROFILE_DIR"); v != "" {
		c.ProfileDir = v
	}
	if v := os.Getenv("TRESTLE_LISTEN_ADDR"); v != "" {
		c.Transport.ListenAddr = v
	}
	if v := os.Getenv("TRESTLE_POSTGRES_URL"); v != "" {
		c.Storage.PostgresURL = v
	}
	if v := os.Getenv("TRESTLE_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("TRESTLE_SECRETS_BACKEND"); v != "" {
		c.Secrets.Backend = v
	}
	if v := os.Getenv("TRESTLE_TRACE_ENABLED"); v != "" {
		c.Trace.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TRESTLE_DEBUG"); v != "" {
		c.Debug = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TRESTLE_PING_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Transport.PingInterval = time.Duration(n) * time.Second
		}
	}
}

// Validate checks the loaded configuration for obvious misconfiguration.
func (c Config) Validate() error {
	if c.ProfileDir == "" {
		return fmt.Errorf("profile_dir must not be empty")
	}
	if c.Transport.ListenAddr == "" {
		return fmt.Errorf("transport.listen_addr must not be empty")
	}
	if c.Trace.SampleRateHigh < 0 || c.Trace.SampleRateHigh > 1 {
		return fmt.Errorf("trace.sample_rate_high must be in [0,1]")
	}
	if c.Trace.SampleRateLow < 0 || c.Trace.SampleRateLow > 1 {
		return fmt.Errorf("trace.sample_rate_low must be in [0,1]")
	}
	switch c.Secrets.Backend {
	case "1password", "local", "auto":
	default:
		return fmt.Errorf("secrets.backend must be one of 1password|local|auto, got %q", c.Secrets.Backend)
	}
	return nil
}
