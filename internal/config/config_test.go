package config

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.ProbePort != DefaultProbePort {
		t.Errorf("ProbePort = %d, want %d", cfg.ProbePort, DefaultProbePort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, DefaultCORSAllowedOrigins) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, DefaultCORSAllowedOrigins)
	}
	if cfg.SeedFile != "" {
		t.Errorf("SeedFile = %q, want empty", cfg.SeedFile)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name:    "PORT sets server port",
			envVars: map[string]string{EnvPort: "4000"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 4000 {
					t.Errorf("ServerPort = %d, want 4000", cfg.ServerPort)
				}
			},
		},
		{
			name:    "APP_SERVER_PORT sets server port",
			envVars: map[string]string{EnvServerPort: "9090"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 9090 {
					t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
				}
			},
		},
		{
			name:    "PORT overrides APP_SERVER_PORT",
			envVars: map[string]string{EnvPort: "4000", EnvServerPort: "9090"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 4000 {
					t.Errorf("ServerPort = %d, want 4000", cfg.ServerPort)
				}
			},
		},
		{
			name:    "probe port",
			envVars: map[string]string{EnvProbePort: "9091"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ProbePort != 9091 {
					t.Errorf("ProbePort = %d, want 9091", cfg.ProbePort)
				}
			},
		},
		{
			name:    "log level is lowercased",
			envVars: map[string]string{EnvLogLevel: "DEBUG"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name:    "shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "5s"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 5*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name:    "metrics disabled",
			envVars: map[string]string{EnvMetricsEnabled: "false"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
			},
		},
		{
			name:    "allowed origins list",
			envVars: map[string]string{EnvCORSAllowedOrigins: " https://a.example, ,https://b.example "},
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://a.example", "https://b.example"}
				if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
					t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
				}
			},
		},
		{
			name:    "seed file",
			envVars: map[string]string{EnvSeedFile: "/data/movies.yaml"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.SeedFile != "/data/movies.yaml" {
					t.Errorf("SeedFile = %q, want /data/movies.yaml", cfg.SeedFile)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{"server port zero", map[string]string{EnvServerPort: "0"}, ErrInvalidServerPort},
		{"server port too high", map[string]string{EnvPort: "65536"}, ErrInvalidServerPort},
		{"probe port negative", map[string]string{EnvProbePort: "-1"}, ErrInvalidProbePort},
		{"probe port conflict", map[string]string{EnvPort: "8000", EnvProbePort: "8000"}, ErrProbePortConflict},
		{"invalid log level", map[string]string{EnvLogLevel: "verbose"}, ErrInvalidLogLevel},
		{"zero shutdown timeout", map[string]string{EnvShutdownTimeout: "0s"}, ErrInvalidShutdownTimeout},
		{"blank origins", map[string]string{EnvCORSAllowedOrigins: " , "}, ErrNoAllowedOrigins},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantKey string
	}{
		{"non-numeric PORT", map[string]string{EnvPort: "http"}, "server_port"},
		{"non-numeric probe port", map[string]string{EnvProbePort: "abc"}, "probe_port"},
		{"bad duration", map[string]string{EnvShutdownTimeout: "soon"}, "shutdown_timeout"},
		{"bad bool", map[string]string{EnvMetricsEnabled: "maybe"}, "metrics_enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected parse error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("Load() error = %v, want it to name %s", err, tt.wantKey)
			}
		})
	}
}

func TestLoad_EmptyVariablesKeepDefaults(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	t.Setenv(EnvPort, "")
	t.Setenv(EnvServerPort, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvCORSAllowedOrigins, "")

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, DefaultCORSAllowedOrigins) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, DefaultCORSAllowedOrigins)
	}
}

func TestConfig_Address(t *testing.T) {
	cfg := &Config{ServerPort: 1234, ProbePort: 9090}

	if got := cfg.Address(); got != ":1234" {
		t.Errorf("Address() = %s, want :1234", got)
	}
	if got := cfg.ProbeAddress(); got != ":9090" {
		t.Errorf("ProbeAddress() = %s, want :9090", got)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"*", []string{"*"}},
		{"a,b", []string{"a", "b"}},
		{" a , , b ", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// clearEnvVars unsets every variable Load reads and restores them after the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvPort,
		EnvServerPort,
		EnvProbePort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvCORSAllowedOrigins,
		EnvSeedFile,
	}
	for _, env := range envVars {
		t.Setenv(env, "")
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}
