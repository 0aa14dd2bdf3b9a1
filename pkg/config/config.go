package config

import "time"

// Config is the root configuration structure for Bastion.
// It contains the HTTP server, the schema registry, validation history and
// telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and request limits.
	Server ServerConfig `yaml:"server"`

	// Registry contains configuration for loading schema documents, either
	// from a local directory or from a Git repository.
	Registry RegistryConfig `yaml:"registry"`

	// History contains configuration for recording validation outcomes
	// including backend selection and retention.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains logging, metrics and health check configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP validation service.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of a payload submitted for validation.
	// Default: 4194304 (4MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TLS enables HTTPS.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the HTTP server.
type TLSConfig struct {
	// Enabled switches the listener to HTTPS.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM encoded certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM encoded private key.
	KeyFile string `yaml:"key_file"`

	// ReloadInterval is how often the key pair files are checked for
	// changes. Renewed certificates are picked up without a restart.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"cert_reload_interval"`
}

// RegistryConfig contains configuration for the schema registry.
type RegistryConfig struct {
	// Mode specifies where schema documents come from.
	// Options: "file" (local directory), "git" (Git repository)
	// Default: "file"
	Mode string `yaml:"mode"`

	// Dir is the directory scanned for *.json, *.yaml, *.yml and *.toml
	// schema documents when Mode is "file".
	// Default: "./schemas"
	Dir string `yaml:"dir"`

	// Watch reloads the registry when files in Dir change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period after a file change before the
	// registry reloads.
	// Default: 200ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Strict treats schema lint warnings as load errors.
	// Default: false
	Strict bool `yaml:"strict"`

	// MaxFileSize is the largest schema document accepted, in bytes.
	// Default: 1048576 (1MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// Git configures the repository used when Mode is "git".
	Git GitSourceConfig `yaml:"git"`
}

// GitSourceConfig configures loading schema documents from a Git repository.
type GitSourceConfig struct {
	// Repository URL (HTTPS or SSH).
	// Example: "https://github.com/company/schemas.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository holding schema documents.
	// Default: "" (repository root)
	Path string `yaml:"path"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`

	// Poll configures change detection.
	Poll GitPollConfig `yaml:"poll"`

	// Clone configures repository cloning.
	Clone GitCloneConfig `yaml:"clone"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh", "none"
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication.
	// Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication.
	// Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// GitPollConfig configures change detection for the Git source.
type GitPollConfig struct {
	// Enabled determines if polling is active.
	// When false, schemas are loaded once at startup.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Interval between polls.
	// Default: 30s
	Interval time.Duration `yaml:"interval"`

	// Timeout for Git operations.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// GitCloneConfig configures repository cloning.
type GitCloneConfig struct {
	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth"`

	// LocalPath where the repository is cloned.
	// Default: system temp directory
	LocalPath string `yaml:"local_path"`

	// CleanOnStart removes the local clone before cloning.
	// Default: false
	CleanOnStart bool `yaml:"clean_on_start"`
}

// HistoryConfig contains configuration for validation history.
type HistoryConfig struct {
	// Enabled turns on recording of every validation outcome served over HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend specifies the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains history recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Query contains query configuration.
	Query QueryConfig `yaml:"query"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains history recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the asynchronous write queue.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing one record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain history records.
	// 0 keeps records forever.
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// QueryConfig contains query configuration.
type QueryConfig struct {
	// DefaultLimit is the number of records returned when no limit is given.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the maximum number of records a single query can return.
	// Default: 10000
	MaxLimit int `yaml:"max_limit"`

	// Timeout is the query execution timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPayloads masks payload-derived attributes (rule messages and
	// payload values) in log output.
	// Default: true
	RedactPayloads bool `yaml:"redact_payloads"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "bastion"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "validator"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for validation duration (seconds).
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// MinSchemas is the number of loaded schemas required for readiness.
	// Default: 1
	MinSchemas int `yaml:"min_schemas"`
}
