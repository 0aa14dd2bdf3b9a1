// Package server provides the HTTP front end of the validator.
//
// # Routes
//
//	POST /v1/schemas/{name}/validate   validate a JSON payload
//	GET  /v1/schemas                   list loaded schemas
//	GET  /v1/schemas/{name}            schema wire form, ETag = fingerprint
//	GET  /v1/history                   query validation history
//	GET  /health, /ready               liveness and readiness
//	GET  /metrics                      Prometheus metrics
//
// The validate endpoint answers 200 with {"valid": true, ...} for a conforming
// payload and 422 with the full error list otherwise. Unknown schemas are 404,
// undecodable bodies 400 and bodies over max_body_bytes 413:
//
//	{
//	    "valid": false,
//	    "schema": "user",
//	    "fingerprint": "9c1f...",
//	    "error_count": 1,
//	    "errors": [{"kind": "missing_field", "field": "email", "message": "..."}]
//	}
//
// History accepts schema, valid, source, since, until (RFC 3339), limit,
// offset and order (asc or desc) query parameters.
//
// # Usage
//
//	srv, err := server.NewServer(cfg, server.Options{
//	    Schemas:  reg,
//	    Recorder: recorder,
//	    History:  store,
//	    Metrics:  tel.Metrics(),
//	    Health:   tel.Health(),
//	    Logger:   tel.Logger(),
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // blocks until ctx is cancelled
package server
