package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"bastion-hq/bastion/pkg/server/api"
)

// Recovery turns a handler panic into a 500 response. The panic value and
// stack are logged but never sent to the client.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					api.WriteError(w, http.StatusInternalServerError, api.NewError(
						api.ErrorTypeServerError,
						api.CodeInternal,
						"An internal error occurred.",
					))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
