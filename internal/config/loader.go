// Package config provides centralized configuration management for the
// render gateway. Values merge in three layers: built-in defaults, an
// optional YAML config file, and RENDERLENS_* environment variables.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// SetDefaults installs the built-in configuration layer on v.
// Durations are set as strings and converted during decoding.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_path", "/")
	v.SetDefault("server.read_timeout", "30s")
	// Render delegations can run up to the renderer timeout, so the write
	// timeout stays above it.
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("data_dir", "./data")

	// Logging defaults
	v.SetDefault("logging.level", "info")

	// Renderer defaults
	v.SetDefault("renderer.base_url", "http://localhost:8090")
	v.SetDefault("renderer.timeout", "60s")
	v.SetDefault("renderer.enabled", true)
	v.SetDefault("renderer.presets_file", "")

	// Rate limit defaults
	v.SetDefault("rate_limit.max_per_window", 2)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("rate_limit.janitor_period", "5m")
	v.SetDefault("rate_limit.janitor_grace", "60s")

	// Batch defaults
	v.SetDefault("batch.flush_interval", "100ms")
}

// FromViper decodes the merged settings in v into a validated Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
