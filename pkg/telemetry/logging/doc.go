// Package logging builds the process logger on log/slog.
//
//	logger, err := logging.New(cfg.Telemetry.Logging, nil)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Three formats are supported: json (default), text and console (text without
// timestamps). Secrets are masked by key name. When redact_payloads is on,
// attributes named value, payload or message have emails, card numbers,
// SSNs and tokens replaced, because validation messages quote payload values.
//
// Request-scoped fields travel in the context:
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.InfoContext(ctx, "validated") // adds request_id=...
package logging
