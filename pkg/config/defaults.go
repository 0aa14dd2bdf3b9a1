package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress     = "127.0.0.1:8080"
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMaxHeaderBytes    = 1048576 // 1MB
	DefaultMaxBodyBytes      = int64(4 * 1024 * 1024)
	DefaultTLSReloadInterval = 5 * time.Minute

	// Registry defaults
	DefaultRegistryMode             = "file"
	DefaultRegistryDir              = "./schemas"
	DefaultRegistryDebounceInterval = 200 * time.Millisecond
	DefaultRegistryMaxFileSize      = int64(1024 * 1024)
	DefaultGitBranch                = "main"
	DefaultGitAuthType              = "none"
	DefaultGitPollEnabled           = true
	DefaultGitPollInterval          = 30 * time.Second
	DefaultGitPollTimeout           = 30 * time.Second
	DefaultGitCloneDepth            = 1

	// History defaults
	DefaultHistoryEnabled              = false
	DefaultHistoryBackend              = "sqlite"
	DefaultHistorySQLitePath           = "data/history.db"
	DefaultHistorySQLiteMaxOpenConns   = 10
	DefaultHistorySQLiteMaxIdleConns   = 5
	DefaultHistorySQLiteWALMode        = true
	DefaultHistorySQLiteBusyTimeout    = 5 * time.Second
	DefaultHistoryRecorderAsyncBuffer  = 1000
	DefaultHistoryRecorderWriteTimeout = 5 * time.Second
	DefaultHistoryRetentionDays        = 30
	DefaultHistoryRetentionSchedule    = "0 3 * * *"
	DefaultHistoryQueryDefaultLimit    = 100
	DefaultHistoryQueryMaxLimit        = 10000
	DefaultHistoryQueryTimeout         = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel          = "info"
	DefaultLoggingFormat         = "json"
	DefaultLoggingRedactPayloads = true
	DefaultMetricsEnabled        = true
	DefaultMetricsPath           = "/metrics"
	DefaultMetricsNamespace      = "bastion"
	DefaultMetricsSubsystem      = "validator"
	DefaultHealthEnabled         = true
	DefaultHealthLivenessPath    = "/health"
	DefaultHealthReadinessPath   = "/ready"
	DefaultHealthMinSchemas      = 1
)

// DefaultDurationBuckets are the validation duration histogram buckets in seconds.
var DefaultDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// NewDefaultConfig returns a configuration with every default applied,
// including settings whose zero value is meaningful (booleans that default to
// true, retention days where 0 keeps records forever). Files are decoded on
// top of it, so a setting left out of a file keeps its default.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Registry.Git.Poll.Enabled = DefaultGitPollEnabled
	cfg.History.Enabled = DefaultHistoryEnabled
	cfg.History.SQLite.WALMode = DefaultHistorySQLiteWALMode
	cfg.History.Retention.Days = DefaultHistoryRetentionDays
	cfg.Telemetry.Logging.RedactPayloads = DefaultLoggingRedactPayloads
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReloadInterval
	}

	// Registry defaults
	if cfg.Registry.Mode == "" {
		cfg.Registry.Mode = DefaultRegistryMode
	}
	if cfg.Registry.Dir == "" {
		cfg.Registry.Dir = DefaultRegistryDir
	}
	if cfg.Registry.DebounceInterval == 0 {
		cfg.Registry.DebounceInterval = DefaultRegistryDebounceInterval
	}
	if cfg.Registry.MaxFileSize == 0 {
		cfg.Registry.MaxFileSize = DefaultRegistryMaxFileSize
	}
	applyGitDefaults(&cfg.Registry.Git)

	// History defaults
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.SQLite.Path == "" {
		cfg.History.SQLite.Path = DefaultHistorySQLitePath
	}
	if cfg.History.SQLite.MaxOpenConns == 0 {
		cfg.History.SQLite.MaxOpenConns = DefaultHistorySQLiteMaxOpenConns
	}
	if cfg.History.SQLite.MaxIdleConns == 0 {
		cfg.History.SQLite.MaxIdleConns = DefaultHistorySQLiteMaxIdleConns
	}
	if cfg.History.SQLite.BusyTimeout == 0 {
		cfg.History.SQLite.BusyTimeout = DefaultHistorySQLiteBusyTimeout
	}
	if cfg.History.Recorder.AsyncBuffer == 0 {
		cfg.History.Recorder.AsyncBuffer = DefaultHistoryRecorderAsyncBuffer
	}
	if cfg.History.Recorder.WriteTimeout == 0 {
		cfg.History.Recorder.WriteTimeout = DefaultHistoryRecorderWriteTimeout
	}
	if cfg.History.Retention.PruneSchedule == "" {
		cfg.History.Retention.PruneSchedule = DefaultHistoryRetentionSchedule
	}
	if cfg.History.Query.DefaultLimit == 0 {
		cfg.History.Query.DefaultLimit = DefaultHistoryQueryDefaultLimit
	}
	if cfg.History.Query.MaxLimit == 0 {
		cfg.History.Query.MaxLimit = DefaultHistoryQueryMaxLimit
	}
	if cfg.History.Query.Timeout == 0 {
		cfg.History.Query.Timeout = DefaultHistoryQueryTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.MinSchemas == 0 {
		cfg.Telemetry.Health.MinSchemas = DefaultHealthMinSchemas
	}
}

func applyGitDefaults(git *GitSourceConfig) {
	if git.Branch == "" {
		git.Branch = DefaultGitBranch
	}
	if git.Auth.Type == "" {
		git.Auth.Type = DefaultGitAuthType
	}
	if git.Poll.Interval == 0 {
		git.Poll.Interval = DefaultGitPollInterval
	}
	if git.Poll.Timeout == 0 {
		git.Poll.Timeout = DefaultGitPollTimeout
	}
	if git.Clone.Depth == 0 {
		git.Clone.Depth = DefaultGitCloneDepth
	}
}
