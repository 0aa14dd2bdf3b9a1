// Package config provides configuration management for Bastion.
//
// Configuration is read from a YAML file, layered over defaults and then
// overridden by environment variables. Every section is validated after
// loading and all problems are reported together.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("bastion.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("bastion.yaml")
//
// LoadConfigWithEnvOverrides accepts an empty path, in which case only
// defaults and the environment apply.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BASTION_SECTION_FIELD:
//
//   - BASTION_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - BASTION_REGISTRY_DIR overrides registry.dir
//   - BASTION_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Booleans that default to true, such as telemetry.metrics.enabled, keep
// their default when the file omits them.
//
// # Validation
//
// Validation errors include field paths:
//
//	configuration validation failed with 2 errors:
//	  - registry.mode: invalid registry mode "s3": must be 'file' or 'git'
//	  - history.retention.prune_schedule: invalid cron expression "daily": ...
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	registry:
//	  mode: "file"
//	  dir: "./schemas"
//	  watch: true
//
//	history:
//	  enabled: true
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/history.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Process-wide Configuration
//
// Initialize, GetConfig and ReloadConfig manage one shared *Config that is
// swapped atomically on reload. Prefer passing *Config explicitly where
// possible.
package config
