// Package middleware provides the HTTP middleware chain of the validator
// service: request IDs, panic recovery and access logging.
//
// The server applies them outermost first:
//
//	r.Use(middleware.RequestID)
//	r.Use(middleware.Logging(logger))
//	r.Use(middleware.Recovery(logger))
//
// Recovery sits inside Logging so that a recovered panic is logged as a 500.
package middleware
