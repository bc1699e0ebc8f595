// Package config provides configuration management for the movies API server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Loads a .env file from the working directory, if present, before Load runs.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultServerPort      = 1234
	DefaultProbePort       = 0
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
)

// DefaultCORSAllowedOrigins are the browser origins allowed by default.
var DefaultCORSAllowedOrigins = []string{
	"http://localhost:8080",
	"http://localhost:1234",
	"http://localhost:3000",
}

// EnvPrefix is the prefix shared by all application environment variables.
const EnvPrefix = "APP_"

// Environment variable names.
const (
	EnvPort               = "PORT"
	EnvServerPort         = "APP_SERVER_PORT"
	EnvProbePort          = "APP_PROBE_PORT"
	EnvLogLevel           = "APP_LOG_LEVEL"
	EnvShutdownTimeout    = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled     = "APP_METRICS_ENABLED"
	EnvCORSAllowedOrigins = "APP_CORS_ALLOWED_ORIGINS"
	EnvSeedFile           = "APP_SEED_FILE"
)

// envConfig mirrors the environment under koanf keys (APP_ prefix removed,
// lowercased). Values absent from the environment keep their defaults.
type envConfig struct {
	ServerPort         int           `koanf:"server_port"`
	ProbePort          int           `koanf:"probe_port"`
	LogLevel           string        `koanf:"log_level"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
	MetricsEnabled     bool          `koanf:"metrics_enabled"`
	CORSAllowedOrigins string        `koanf:"cors_allowed_origins"`
	SeedFile           string        `koanf:"seed_file"`
}

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	ProbePort       int // Separate probe listener port (0 = serve probes on ServerPort).
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// CORSAllowedOrigins is the browser origin allow-list. "*" allows any origin.
	CORSAllowedOrigins []string

	// SeedFile replaces the built-in catalogue when set.
	SeedFile string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidProbePort       = errors.New("probe port must be between 0 and 65535")
	ErrProbePortConflict      = errors.New("probe port must differ from server port when probe port is not 0")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrNoAllowedOrigins       = errors.New("at least one CORS allowed origin must be set")
)

// Load reads configuration from environment variables with defaults.
// Variables prefixed with APP_ are read first; a bare PORT variable, as set
// by most hosting platforms, overrides APP_SERVER_PORT. Empty variables are
// treated as unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s* environment: %w", EnvPrefix, err)
	}

	err = k.Load(env.ProviderWithValue(EnvPort, ".", func(key, value string) (string, any) {
		if key != EnvPort || value == "" {
			return "", nil
		}
		return "server_port", value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s environment: %w", EnvPort, err)
	}

	raw := envConfig{
		ServerPort:         DefaultServerPort,
		ProbePort:          DefaultProbePort,
		LogLevel:           DefaultLogLevel,
		ShutdownTimeout:    DefaultShutdownTimeout,
		MetricsEnabled:     DefaultMetricsEnabled,
		CORSAllowedOrigins: strings.Join(DefaultCORSAllowedOrigins, ","),
	}
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := &Config{
		ServerPort:         raw.ServerPort,
		ProbePort:          raw.ProbePort,
		LogLevel:           strings.ToLower(raw.LogLevel),
		ShutdownTimeout:    raw.ShutdownTimeout,
		MetricsEnabled:     raw.MetricsEnabled,
		CORSAllowedOrigins: splitList(raw.CORSAllowedOrigins),
		SeedFile:           raw.SeedFile,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// splitList splits a comma separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	if c.ProbePort < 0 || c.ProbePort > 65535 {
		return ErrInvalidProbePort
	}

	if c.ProbePort != 0 && c.ProbePort == c.ServerPort {
		return ErrProbePortConflict
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if len(c.CORSAllowedOrigins) == 0 {
		return ErrNoAllowedOrigins
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// ProbeAddress returns the probe server address in host:port format.
func (c *Config) ProbeAddress() string {
	return fmt.Sprintf(":%d", c.ProbePort)
}
