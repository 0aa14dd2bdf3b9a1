package metrics

import (
	"sync"
	"time"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/registry"
	"bastion-hq/bastion/pkg/validate"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// MaxSchemaLabels bounds the number of distinct schema label values. Schemas
// past the limit are reported as "other".
const MaxSchemaLabels = 1000

// Collector owns the Prometheus registry and every bastion metric.
//
// All Record methods are no-ops when metrics are disabled, so callers never
// need to check the configuration themselves.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	validationMetrics *ValidationMetrics
	schemaMetrics     *SchemaMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector. If registry is nil a fresh
// registry is created with the Go runtime and process collectors attached.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	reg.OnReload(collector.RecordReload)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		validationMetrics:  NewValidationMetrics(cfg, registry),
		schemaMetrics:      NewSchemaMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(MaxSchemaLabels),
	}
}

// RecordValidation records the outcome of validating one payload of size
// bytes against schemaName. A nil or empty errs means the payload was valid.
func (c *Collector) RecordValidation(schemaName string, size int, errs *validate.ErrorList, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(schemaName) {
		schemaName = "other"
	}

	var byKind map[string]int
	if errs.HasErrors() {
		byKind = make(map[string]int)
		for kind, n := range errs.CountByKind() {
			byKind[string(kind)] = n
		}
	}

	c.validationMetrics.RecordValidation(schemaName, size, byKind, duration)
}

// RecordReload records a registry load attempt. It has the signature
// expected by registry.OnReload.
func (c *Collector) RecordReload(ev registry.ReloadEvent) {
	if !c.config.Enabled {
		return
	}

	c.schemaMetrics.RecordReload(ev.Trigger, ev.Err == nil, ev.Count, ev.Duration, time.Now())
}

// SetSchemasLoaded sets the loaded schema gauge directly, for the initial load.
func (c *Collector) SetSchemasLoaded(count int) {
	if !c.config.Enabled {
		return
	}

	c.schemaMetrics.SetLoaded(count)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used. Values already seen are
// always allowed; new values are allowed until the limit is reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
