package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment names accepted in config.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config represents the complete application configuration. Values are
// merged from defaults, an optional YAML config file, and environment
// variables before being decoded into this struct.
type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Environment string          `mapstructure:"environment"`
	DataDir     string          `mapstructure:"data_dir"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Renderer    RendererConfig  `mapstructure:"renderer"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Batch       BatchConfig     `mapstructure:"batch"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	BasePath        string        `mapstructure:"base_path"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`
}

// RendererConfig points at the external animation renderer.
type RendererConfig struct {
	// BaseURL is the renderer's HTTP endpoint.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds a single render delegation.
	Timeout time.Duration `mapstructure:"timeout"`

	// Enabled gates the render endpoint without removing it.
	Enabled bool `mapstructure:"enabled"`

	// PresetsFile optionally overrides the embedded quality presets.
	PresetsFile string `mapstructure:"presets_file"`
}

// RateLimitConfig tunes the per-address render rate limiter.
type RateLimitConfig struct {
	MaxPerWindow  int           `mapstructure:"max_per_window"`
	Window        time.Duration `mapstructure:"window"`
	JanitorPeriod time.Duration `mapstructure:"janitor_period"`
	JanitorGrace  time.Duration `mapstructure:"janitor_grace"`
}

// BatchConfig tunes the socket-emission batcher.
type BatchConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// Addr returns the host:port the HTTP server binds.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the listen address from the server section.
func (c *Config) Addr() string {
	return c.Server.Addr()
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvProduction)
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path %q must begin with /", c.Server.BasePath)
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("environment %q is not one of %s, %s, %s",
			c.Environment, EnvDevelopment, EnvProduction, EnvTest)
	}
	if c.Renderer.Enabled && strings.TrimSpace(c.Renderer.BaseURL) == "" {
		return fmt.Errorf("renderer.base_url is required when the renderer is enabled")
	}
	if c.Renderer.Timeout <= 0 {
		return fmt.Errorf("renderer.timeout must be positive")
	}
	if c.RateLimit.MaxPerWindow < 1 {
		return fmt.Errorf("rate_limit.max_per_window must be at least 1")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if c.RateLimit.JanitorPeriod <= 0 {
		return fmt.Errorf("rate_limit.janitor_period must be positive")
	}
	if c.RateLimit.JanitorGrace < 0 {
		return fmt.Errorf("rate_limit.janitor_grace must not be negative")
	}
	if c.Batch.FlushInterval <= 0 {
		return fmt.Errorf("batch.flush_interval must be positive")
	}
	return nil
}
