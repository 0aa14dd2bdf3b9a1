// Package health provides liveness, readiness and version endpoints.
//
// Liveness only reports that the process is up. Readiness runs every
// registered check concurrently, each bounded by the checker timeout, and
// answers 503 when any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("registry", health.RegistryCheck(reg, cfg.Telemetry.Health.MinSchemas))
//	checker.RegisterCheck("history", health.StorageCheck(store))
//
//	router.Get("/health", checker.LivenessHandler())
//	router.Get("/ready", checker.ReadinessHandler())
package health
