package telemetry

import (
	"fmt"
	"io"
	"log/slog"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/telemetry/health"
	"bastion-hq/bastion/pkg/telemetry/logging"
	"bastion-hq/bastion/pkg/telemetry/metrics"
)

// Telemetry bundles the process logger, metrics collector and health checker.
type Telemetry struct {
	logger  *slog.Logger
	metrics *metrics.Collector
	health  *health.Checker
}

// New builds telemetry from configuration. Logs are written to w, or stderr
// when w is nil.
func New(cfg *config.TelemetryConfig, w io.Writer) (*Telemetry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telemetry config cannot be nil")
	}

	logger, err := logging.New(cfg.Logging, w)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, nil),
		health:  health.New(health.DefaultCheckTimeout),
	}, nil
}

// Logger returns the configured logger.
func (t *Telemetry) Logger() *slog.Logger { return t.logger }

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }
