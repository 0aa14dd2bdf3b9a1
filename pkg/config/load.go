package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix for every environment variable override.
const envPrefix = "BASTION_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Validate
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parseConfig decodes YAML over the defaults and fills any fields the
// document zeroed out.
func parseConfig(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention BASTION_SECTION_FIELD (e.g., BASTION_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path skips the file and starts from defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = parseConfig(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format BASTION_SECTION_FIELD. Values that do
// not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envInt64("SERVER_MAX_BODY_BYTES", &cfg.Server.MaxBodyBytes)
	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	envDuration("SERVER_TLS_CERT_RELOAD_INTERVAL", &cfg.Server.TLS.ReloadInterval)

	// Registry overrides
	envString("REGISTRY_MODE", &cfg.Registry.Mode)
	envString("REGISTRY_DIR", &cfg.Registry.Dir)
	envBool("REGISTRY_WATCH", &cfg.Registry.Watch)
	envDuration("REGISTRY_DEBOUNCE_INTERVAL", &cfg.Registry.DebounceInterval)
	envBool("REGISTRY_STRICT", &cfg.Registry.Strict)
	envInt64("REGISTRY_MAX_FILE_SIZE", &cfg.Registry.MaxFileSize)
	envString("REGISTRY_GIT_REPOSITORY", &cfg.Registry.Git.Repository)
	envString("REGISTRY_GIT_BRANCH", &cfg.Registry.Git.Branch)
	envString("REGISTRY_GIT_PATH", &cfg.Registry.Git.Path)
	envString("REGISTRY_GIT_AUTH_TYPE", &cfg.Registry.Git.Auth.Type)
	envString("REGISTRY_GIT_AUTH_TOKEN", &cfg.Registry.Git.Auth.Token)
	envString("REGISTRY_GIT_AUTH_SSH_KEY_PATH", &cfg.Registry.Git.Auth.SSHKeyPath)
	envString("REGISTRY_GIT_AUTH_SSH_KEY_PASSPHRASE", &cfg.Registry.Git.Auth.SSHKeyPassphrase)
	envBool("REGISTRY_GIT_POLL_ENABLED", &cfg.Registry.Git.Poll.Enabled)
	envDuration("REGISTRY_GIT_POLL_INTERVAL", &cfg.Registry.Git.Poll.Interval)
	envString("REGISTRY_GIT_CLONE_LOCAL_PATH", &cfg.Registry.Git.Clone.LocalPath)

	// History overrides
	envBool("HISTORY_ENABLED", &cfg.History.Enabled)
	envString("HISTORY_BACKEND", &cfg.History.Backend)
	envString("HISTORY_SQLITE_PATH", &cfg.History.SQLite.Path)
	envInt("HISTORY_RETENTION_DAYS", &cfg.History.Retention.Days)
	envString("HISTORY_RETENTION_PRUNE_SCHEDULE", &cfg.History.Retention.PruneSchedule)
	envInt64("HISTORY_RETENTION_MAX_RECORDS", &cfg.History.Retention.MaxRecords)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_LOGGING_REDACT_PAYLOADS", &cfg.Telemetry.Logging.RedactPayloads)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)
}

func envString(key string, dst *string) {
	if val := os.Getenv(envPrefix + key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envInt64(key string, dst *int64) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(envPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
