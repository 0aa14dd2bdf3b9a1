// Package telemetry wires the validator's observability.
//
// # Components
//
//   - logging: log/slog construction with secret and payload redaction
//   - metrics: Prometheus counters and histograms for validations and reloads
//   - health: liveness and readiness probes
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, nil)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(tel.Logger())
//	reg.OnReload(tel.Metrics().RecordReload)
//	tel.Health().RegisterCheck("registry", health.RegistryCheck(reg, 1))
package telemetry
