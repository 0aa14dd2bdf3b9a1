package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bastion.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Registry.Mode != "file" || cfg.Registry.Dir != DefaultRegistryDir {
		t.Errorf("registry = %+v", cfg.Registry)
	}
	if !cfg.Telemetry.Metrics.Enabled || !cfg.Telemetry.Health.Enabled {
		t.Error("metrics and health should be enabled by default")
	}
	if !cfg.Telemetry.Logging.RedactPayloads {
		t.Error("payload redaction should be on by default")
	}
	if !cfg.History.SQLite.WALMode {
		t.Error("WAL mode should be on by default")
	}
	if cfg.History.Retention.Days != DefaultHistoryRetentionDays {
		t.Errorf("Retention.Days = %d, want %d", cfg.History.Retention.Days, DefaultHistoryRetentionDays)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by default")
	}
}

func TestApplyDefaultsIdempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if cfg.Server != first.Server || cfg.Registry != first.Registry {
		t.Error("second ApplyDefaults changed the config")
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) != len(DefaultDurationBuckets) {
		t.Errorf("buckets = %v", cfg.Telemetry.Metrics.DurationBuckets)
	}
	cfg.Telemetry.Metrics.DurationBuckets[0] = 42
	if DefaultDurationBuckets[0] == 42 {
		t.Error("ApplyDefaults aliased DefaultDurationBuckets")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: 5s
registry:
  dir: /etc/bastion/schemas
  watch: true
telemetry:
  metrics:
    namespace: acme
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("WriteTimeout = %v, want default", cfg.Server.WriteTimeout)
	}
	if cfg.Registry.Dir != "/etc/bastion/schemas" || !cfg.Registry.Watch {
		t.Errorf("registry = %+v", cfg.Registry)
	}
	if cfg.Telemetry.Metrics.Namespace != "acme" {
		t.Errorf("Namespace = %q", cfg.Telemetry.Metrics.Namespace)
	}
	// Omitted booleans keep their defaults.
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics.enabled lost its default")
	}
}

func TestLoadConfigExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  metrics:
    enabled: false
  logging:
    redact_payloads: false
history:
  retention:
    days: 0
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics.enabled = true, want false")
	}
	if cfg.Telemetry.Logging.RedactPayloads {
		t.Error("redact_payloads = true, want false")
	}
	if cfg.History.Retention.Days != 0 {
		t.Errorf("retention.days = %d, want 0", cfg.History.Retention.Days)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "server: [", "failed to parse"},
		{"bad mode", "registry:\n  mode: s3\n", "registry.mode"},
		{"bad level", "telemetry:\n  logging:\n    level: loud\n", "telemetry.logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfig() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:8000\"\n")

	t.Setenv("BASTION_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("BASTION_REGISTRY_WATCH", "true")
	t.Setenv("BASTION_REGISTRY_DEBOUNCE_INTERVAL", "1s")
	t.Setenv("BASTION_HISTORY_RETENTION_DAYS", "7")
	t.Setenv("BASTION_TELEMETRY_METRICS_ENABLED", "false")
	t.Setenv("BASTION_SERVER_MAX_BODY_BYTES", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if !cfg.Registry.Watch || cfg.Registry.DebounceInterval != time.Second {
		t.Errorf("registry = %+v", cfg.Registry)
	}
	if cfg.History.Retention.Days != 7 {
		t.Errorf("Retention.Days = %d", cfg.History.Retention.Days)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics should be disabled by env override")
	}
	if cfg.Server.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("unparsable override changed MaxBodyBytes to %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoadConfigWithEnvOverridesNoFile(t *testing.T) {
	t.Setenv("BASTION_REGISTRY_DIR", "/srv/schemas")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Registry.Dir != "/srv/schemas" {
		t.Errorf("Dir = %q", cfg.Registry.Dir)
	}
}

func TestLoadConfigWithEnvOverridesInvalid(t *testing.T) {
	t.Setenv("BASTION_REGISTRY_MODE", "ftp")

	_, err := LoadConfigWithEnvOverrides("")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !verr.HasField("registry.mode") {
		t.Errorf("errors = %v", verr.Errors)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "listen address without port",
			mutate: func(c *Config) { c.Server.ListenAddress = "localhost" },
			fields: []string{"server.listen_address"},
		},
		{
			name:   "negative timeouts",
			mutate: func(c *Config) { c.Server.ReadTimeout = -1; c.Server.ShutdownTimeout = -1 },
			fields: []string{"server.read_timeout", "server.shutdown_timeout"},
		},
		{
			name:   "tls without files",
			mutate: func(c *Config) { c.Server.TLS.Enabled = true },
			fields: []string{"server.tls.cert_file", "server.tls.key_file"},
		},
		{
			name:   "git without repository",
			mutate: func(c *Config) { c.Registry.Mode = "git" },
			fields: []string{"registry.git.repository"},
		},
		{
			name: "git token auth without token",
			mutate: func(c *Config) {
				c.Registry.Mode = "git"
				c.Registry.Git.Repository = "https://example.com/schemas.git"
				c.Registry.Git.Auth.Type = "token"
			},
			fields: []string{"registry.git.auth.token"},
		},
		{
			name: "git unknown auth",
			mutate: func(c *Config) {
				c.Registry.Mode = "git"
				c.Registry.Git.Repository = "https://example.com/schemas.git"
				c.Registry.Git.Auth.Type = "kerberos"
			},
			fields: []string{"registry.git.auth.type"},
		},
		{
			name:   "watch with zero debounce",
			mutate: func(c *Config) { c.Registry.Watch = true; c.Registry.DebounceInterval = 0 },
			fields: []string{"registry.debounce_interval"},
		},
		{
			name: "history ignores settings when disabled",
			mutate: func(c *Config) {
				c.History.Backend = "postgres"
				c.History.Retention.PruneSchedule = "whenever"
			},
		},
		{
			name: "history bad backend and schedule",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.Backend = "postgres"
				c.History.Retention.PruneSchedule = "whenever"
			},
			fields: []string{"history.backend", "history.retention.prune_schedule"},
		},
		{
			name: "history limits",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.Query.DefaultLimit = 500
				c.History.Query.MaxLimit = 100
				c.History.Retention.Days = 5000
			},
			fields: []string{"history.query.max_limit", "history.retention.days"},
		},
		{
			name:   "bad logging format",
			mutate: func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			fields: []string{"telemetry.logging.format"},
		},
		{
			name:   "metrics path without slash",
			mutate: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			fields: []string{"telemetry.metrics.path"},
		},
		{
			name:   "unsorted buckets",
			mutate: func(c *Config) { c.Telemetry.Metrics.DurationBuckets = []float64{0.1, 0.01} },
			fields: []string{"telemetry.metrics.duration_buckets"},
		},
		{
			name:   "same health paths",
			mutate: func(c *Config) { c.Telemetry.Health.ReadinessPath = c.Telemetry.Health.LivenessPath },
			fields: []string{"telemetry.health.readiness_path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if len(verr.Errors) != len(tt.fields) {
				t.Errorf("got %d errors, want %d: %v", len(verr.Errors), len(tt.fields), verr.Errors)
			}
			for _, f := range tt.fields {
				if !verr.HasField(f) {
					t.Errorf("missing error for %s in %v", f, verr.Errors)
				}
			}
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	one := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := one.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("Error() = %q", got)
	}

	two := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	want := "configuration validation failed with 2 errors:\n  - a: bad\n  - b: worse\n"
	if got := two.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
