package metrics

import (
	"time"

	"bastion-hq/bastion/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SchemaMetrics tracks the schema registry.
//
// Metrics:
//   - bastion_validator_schema_reloads_total: reload attempts by trigger and result
//   - bastion_validator_schema_reload_duration_seconds: reload duration histogram
//   - bastion_validator_schemas_loaded: schemas currently served
//   - bastion_validator_schema_last_reload_timestamp_seconds: time of the last successful reload
type SchemaMetrics struct {
	reloadsTotal   *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	schemasLoaded  prometheus.Gauge
	lastReload     prometheus.Gauge
}

// NewSchemaMetrics creates and registers schema registry metrics with the provided registry.
func NewSchemaMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SchemaMetrics {
	sm := &SchemaMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "schema_reloads_total",
				Help:      "Total number of schema registry load attempts",
			},
			[]string{"trigger", "result"},
		),

		reloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "schema_reload_duration_seconds",
				Help:      "Duration of schema registry loads in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),

		schemasLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "schemas_loaded",
				Help:      "Number of schemas currently loaded",
			},
		),

		lastReload: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "schema_last_reload_timestamp_seconds",
				Help:      "Unix time of the last successful schema load",
			},
		),
	}

	registry.MustRegister(
		sm.reloadsTotal,
		sm.reloadDuration,
		sm.schemasLoaded,
		sm.lastReload,
	)

	return sm
}

// RecordReload records one load attempt. The loaded gauge only moves on success,
// since a failed load keeps the previous schema set.
func (sm *SchemaMetrics) RecordReload(trigger string, success bool, count int, duration time.Duration, at time.Time) {
	result := "success"
	if !success {
		result = "failure"
	}

	sm.reloadsTotal.WithLabelValues(trigger, result).Inc()
	sm.reloadDuration.Observe(duration.Seconds())
	if success {
		sm.schemasLoaded.Set(float64(count))
		sm.lastReload.Set(float64(at.Unix()))
	}
}

// SetLoaded sets the loaded schema gauge.
func (sm *SchemaMetrics) SetLoaded(count int) {
	sm.schemasLoaded.Set(float64(count))
}
