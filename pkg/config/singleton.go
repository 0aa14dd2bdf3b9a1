package config

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// current holds the process-wide configuration.
	current atomic.Pointer[Config]

	// initMu serializes Initialize so concurrent callers observe one load.
	initMu sync.Mutex
)

// ErrNotInitialized is returned by Reload when Initialize has not succeeded.
var ErrNotInitialized = errors.New("configuration not initialized: call Initialize first")

// Initialize loads configuration from path with environment variable
// overrides and stores it as the process-wide configuration. Once a
// configuration is stored, later calls are no-ops. A failed call leaves the
// configuration unset so it can be retried.
func Initialize(path string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if current.Load() != nil {
		return nil
	}
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	current.Store(cfg)
	return nil
}

// GetConfig returns the process-wide configuration, or nil before Initialize.
// The returned value must be treated as read-only.
//
// For testing, prefer passing an explicit *Config.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig replaces the process-wide configuration. Intended for tests and
// for callers that built a Config themselves. A nil cfg clears it.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads configuration from path and replaces the process-wide
// configuration only if loading and validation succeed. On failure the
// existing configuration stays in place.
func ReloadConfig(path string) error {
	if current.Load() == nil {
		return ErrNotInitialized
	}
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(cfg)
	return nil
}

// MustGetConfig returns the process-wide configuration and panics if it has
// not been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic(ErrNotInitialized.Error())
	}
	return cfg
}
