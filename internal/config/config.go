// Package config provides configuration loading and management for the sync
// engine.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when optional settings are omitted
const (
	DefaultSyncInterval         = "60s"
	DefaultRequestTimeout       = "10s"
	DefaultHandshakeTimeout     = "20s"
	DefaultMaxReconnectAttempts = 5
	DefaultHTTPAddress          = ":8080"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	User      UserConfig       `yaml:"user,omitempty"`
	Sync      SyncConfig       `yaml:"sync,omitempty"`
	Channel   ChannelConfig    `yaml:"channel,omitempty"`
	HTTP      HTTPConfig       `yaml:"http,omitempty"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// UserConfig is the identity the daemon syncs as. The role selects the
// privileged collections fetched in addition to the baseline; unknown or
// empty roles get the baseline only.
type UserConfig struct {
	ID   string `yaml:"id,omitempty"`
	Role string `yaml:"role,omitempty"`
}

// ServerConfig points the engine at the backend
type ServerConfig struct {
	// BaseURL is the backend base address, e.g. "https://api.alghazaly.example".
	// REST fetches append resource paths; the event channel upgrades the
	// scheme and connects to /api/ws.
	BaseURL string `yaml:"baseURL"`

	// Timeout bounds each REST request (e.g. "10s")
	Timeout string `yaml:"timeout,omitempty"`
}

// SyncConfig tunes the bulk-sync orchestrator
type SyncConfig struct {
	// Interval is the period between sync cycles (e.g. "60s", "5m")
	Interval string `yaml:"interval,omitempty"`
}

// ChannelConfig tunes the event channel
type ChannelConfig struct {
	// MaxReconnectAttempts is the reconnect budget before the channel
	// gives up until an explicit reconnect
	MaxReconnectAttempts int `yaml:"maxReconnectAttempts,omitempty"`

	// HandshakeTimeout bounds the websocket dial (e.g. "20s")
	HandshakeTimeout string `yaml:"handshakeTimeout,omitempty"`
}

// HTTPConfig configures the operational HTTP surface
type HTTPConfig struct {
	// Address to listen on for /healthz, /status and /metrics
	Address string `yaml:"address,omitempty"`
}

// TelemetryConfig configures metric collection
type TelemetryConfig struct {
	MetricsEnabled bool `yaml:"metricsEnabled,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults fills omitted optional settings
func (c *Config) applyDefaults() {
	if c.Server.Timeout == "" {
		c.Server.Timeout = DefaultRequestTimeout
	}
	if c.Sync.Interval == "" {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.Channel.MaxReconnectAttempts == 0 {
		c.Channel.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Channel.HandshakeTimeout == "" {
		c.Channel.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = DefaultHTTPAddress
	}
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(&c.Server); err != nil {
		return err
	}
	if err := validateSync(&c.Sync); err != nil {
		return err
	}
	return validateChannel(&c.Channel)
}

// validateServer validates the backend settings
func validateServer(server *ServerConfig) error {
	if server.BaseURL == "" {
		return fmt.Errorf("server.baseURL is required")
	}

	u, err := url.Parse(server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.baseURL must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.baseURL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.baseURL must include a host")
	}

	if _, err := parsePositiveDuration(server.Timeout); err != nil {
		return fmt.Errorf("server.timeout: %w", err)
	}
	return nil
}

// validateSync validates the orchestrator settings
func validateSync(sync *SyncConfig) error {
	if _, err := parsePositiveDuration(sync.Interval); err != nil {
		return fmt.Errorf("sync.interval: %w", err)
	}
	return nil
}

// validateChannel validates the event channel settings
func validateChannel(channel *ChannelConfig) error {
	if channel.MaxReconnectAttempts < 0 {
		return fmt.Errorf("channel.maxReconnectAttempts must not be negative")
	}
	if _, err := parsePositiveDuration(channel.HandshakeTimeout); err != nil {
		return fmt.Errorf("channel.handshakeTimeout: %w", err)
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("must be a valid duration (e.g. '30s', '5m'): %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

// SyncInterval returns the parsed sync period. Call after Validate.
func (c *Config) SyncInterval() time.Duration {
	d, _ := time.ParseDuration(c.Sync.Interval)
	return d
}

// RequestTimeout returns the parsed REST request timeout. Call after Validate.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.Timeout)
	return d
}

// HandshakeTimeout returns the parsed websocket dial timeout. Call after
// Validate.
func (c *Config) HandshakeTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Channel.HandshakeTimeout)
	return d
}

// MetricsEnabled reports whether metric collection is enabled
func (c *Config) MetricsEnabled() bool {
	return c.Telemetry != nil && c.Telemetry.MetricsEnabled
}
