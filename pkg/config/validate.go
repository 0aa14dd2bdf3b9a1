package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether any error refers to the given dotted field path.
func (e ValidationError) HasField(field string) bool {
	for _, err := range e.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateRegistry(&cfg.Registry)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: must be host:port", cfg.ListenAddress),
		})
	}

	// Validate timeouts are positive
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_file",
				Message: "certificate file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
		if cfg.TLS.ReloadInterval < 0 {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_reload_interval",
				Message: "certificate reload interval must be positive",
			})
		}
	}

	return errs
}

// validateRegistry validates schema registry configuration.
func validateRegistry(cfg *RegistryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "file":
		if cfg.Dir == "" {
			errs = append(errs, FieldError{
				Field:   "registry.dir",
				Message: "schema directory is required when mode is 'file'",
			})
		}
	case "git":
		errs = append(errs, validateGitSource(&cfg.Git)...)
	case "":
		errs = append(errs, FieldError{
			Field:   "registry.mode",
			Message: "registry mode is required",
		})
	default:
		errs = append(errs, FieldError{
			Field:   "registry.mode",
			Message: fmt.Sprintf("invalid registry mode %q: must be 'file' or 'git'", cfg.Mode),
		})
	}

	if cfg.Watch && cfg.DebounceInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "registry.debounce_interval",
			Message: "debounce interval must be positive when watch is enabled",
		})
	}
	if cfg.MaxFileSize < 0 {
		errs = append(errs, FieldError{
			Field:   "registry.max_file_size",
			Message: "max file size must be non-negative",
		})
	}

	return errs
}

func validateGitSource(cfg *GitSourceConfig) []FieldError {
	var errs []FieldError

	if cfg.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "registry.git.repository",
			Message: "repository is required when mode is 'git'",
		})
	}
	if cfg.Branch == "" {
		errs = append(errs, FieldError{
			Field:   "registry.git.branch",
			Message: "branch is required when mode is 'git'",
		})
	}

	switch cfg.Auth.Type {
	case "none", "":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{
				Field:   "registry.git.auth.token",
				Message: "token is required when auth type is 'token'",
			})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{
				Field:   "registry.git.auth.ssh_key_path",
				Message: "SSH key path is required when auth type is 'ssh'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "registry.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'none', 'token', or 'ssh'", cfg.Auth.Type),
		})
	}

	if cfg.Poll.Enabled && cfg.Poll.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "registry.git.poll.interval",
			Message: "poll interval must be positive when polling is enabled",
		})
	}
	if cfg.Poll.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "registry.git.poll.timeout",
			Message: "poll timeout must be non-negative",
		})
	}
	if cfg.Clone.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "registry.git.clone.depth",
			Message: "clone depth must be non-negative",
		})
	}

	return errs
}

// validateHistory validates validation history configuration.
func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	// If history is disabled, skip validation
	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "history.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "history.sqlite.max_open_conns",
				Message: "max open connections must be non-negative",
			})
		}
		if cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns && cfg.SQLite.MaxOpenConns > 0 {
			errs = append(errs, FieldError{
				Field:   "history.sqlite.max_idle_conns",
				Message: "max idle connections must not exceed max open connections",
			})
		}
	case "memory":
	case "":
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: "backend is required when history is enabled",
		})
	default:
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	if cfg.Recorder.AsyncBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "history.recorder.async_buffer",
			Message: "async buffer must be non-negative",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.Days > 3650 { // 10 years is excessive
		errs = append(errs, FieldError{
			Field:   "history.retention.days",
			Message: "retention days exceeds reasonable limit (3650 days / 10 years)",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "history.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.PruneSchedule, err),
			})
		}
	}

	if cfg.Query.DefaultLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "history.query.default_limit",
			Message: "default limit must be positive",
		})
	}
	if cfg.Query.MaxLimit < cfg.Query.DefaultLimit {
		errs = append(errs, FieldError{
			Field:   "history.query.max_limit",
			Message: "max limit must be at least the default limit",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path is required when metrics are enabled",
			})
		} else if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with '/'",
			})
		}
		for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
			if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.duration_buckets",
					Message: "duration buckets must be strictly increasing",
				})
				break
			}
		}
	}

	if cfg.Health.Enabled {
		if cfg.Health.LivenessPath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path is required when health checks are enabled",
			})
		}
		if cfg.Health.ReadinessPath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path is required when health checks are enabled",
			})
		}
		if cfg.Health.LivenessPath != "" && cfg.Health.LivenessPath == cfg.Health.ReadinessPath {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must differ from liveness path",
			})
		}
		if cfg.Health.MinSchemas < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.min_schemas",
				Message: "min schemas must be non-negative",
			})
		}
	}

	return errs
}
