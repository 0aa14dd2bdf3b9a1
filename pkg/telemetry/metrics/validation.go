package metrics

import (
	"time"

	"bastion-hq/bastion/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ValidationMetrics tracks payload validation outcomes.
//
// Metrics:
//   - bastion_validator_validations_total: validations by schema and result
//   - bastion_validator_validation_errors_total: reported errors by schema and kind
//   - bastion_validator_validation_duration_seconds: validation duration histogram
//   - bastion_validator_payload_size_bytes: decoded payload size histogram
type ValidationMetrics struct {
	validationsTotal   *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	payloadSize        *prometheus.HistogramVec
}

// NewValidationMetrics creates and registers validation metrics with the provided registry.
func NewValidationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ValidationMetrics {
	vm := &ValidationMetrics{
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validations_total",
				Help:      "Total number of payloads validated",
			},
			[]string{"schema", "result"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_errors_total",
				Help:      "Total number of validation errors reported, by kind",
			},
			[]string{"schema", "kind"},
		),

		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_duration_seconds",
				Help:      "Duration of payload validation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"schema"},
		),

		payloadSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "payload_size_bytes",
				Help:      "Size of validated payloads in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"schema"},
		),
	}

	registry.MustRegister(
		vm.validationsTotal,
		vm.errorsTotal,
		vm.validationDuration,
		vm.payloadSize,
	)

	return vm
}

// RecordValidation records one validation. errorsByKind may be nil for a
// valid payload. A negative size skips the size histogram.
func (vm *ValidationMetrics) RecordValidation(schemaName string, size int, errorsByKind map[string]int, duration time.Duration) {
	result := "valid"
	if len(errorsByKind) > 0 {
		result = "invalid"
	}

	vm.validationsTotal.WithLabelValues(schemaName, result).Inc()
	vm.validationDuration.WithLabelValues(schemaName).Observe(duration.Seconds())
	if size >= 0 {
		vm.payloadSize.WithLabelValues(schemaName).Observe(float64(size))
	}
	for kind, n := range errorsByKind {
		vm.errorsTotal.WithLabelValues(schemaName, kind).Add(float64(n))
	}
}
