// Package metrics exposes Prometheus metrics for the validator.
//
// # Metrics
//
// Validation:
//
//	bastion_validator_validations_total{schema,result}
//	bastion_validator_validation_errors_total{schema,kind}
//	bastion_validator_validation_duration_seconds{schema}
//	bastion_validator_payload_size_bytes{schema}
//
// Schema registry:
//
//	bastion_validator_schema_reloads_total{trigger,result}
//	bastion_validator_schema_reload_duration_seconds
//	bastion_validator_schemas_loaded
//	bastion_validator_schema_last_reload_timestamp_seconds
//
// The namespace and subsystem come from configuration. The schema label is
// capped at MaxSchemaLabels distinct values.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	reg.OnReload(collector.RecordReload)
//
//	errs := validate.Check(s, payload)
//	collector.RecordValidation(s.Name, len(body), errs, time.Since(start))
//
//	router.Handle("/metrics", collector.Handler())
package metrics
