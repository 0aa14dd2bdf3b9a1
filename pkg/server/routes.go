package server

import (
	"net/http"

	"bastion-hq/bastion/pkg/server/api"
	"bastion-hq/bastion/pkg/server/middleware"
	"bastion-hq/bastion/pkg/telemetry/health"

	"github.com/go-chi/chi/v5"
)

// setupRoutes builds the router and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.Recovery(s.logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/schemas", s.handleListSchemas)
		r.Get("/schemas/{name}", s.handleGetSchema)
		r.Post("/schemas/{name}/validate", s.handleValidate)

		if s.opts.History != nil {
			r.Get("/history", s.handleHistory)
		} else {
			r.Get("/history", func(w http.ResponseWriter, _ *http.Request) {
				api.WriteError(w, http.StatusNotFound, api.NewError(
					api.ErrorTypeNotFound, api.CodeHistoryDisabled, "validation history is disabled",
				))
			})
		}
	})

	tel := &s.config.Telemetry
	if s.opts.Health != nil && tel.Health.Enabled {
		r.Get(tel.Health.LivenessPath, s.opts.Health.LivenessHandler())
		r.Head(tel.Health.LivenessPath, s.opts.Health.LivenessHandler())
		r.Get(tel.Health.ReadinessPath, s.opts.Health.ReadinessHandler())
		r.Head(tel.Health.ReadinessPath, s.opts.Health.ReadinessHandler())
	}
	if v := s.opts.Version; v.Version != "" {
		r.Get("/version", health.VersionHandler(v.Version, v.Commit, v.BuildTime))
	}
	if s.opts.Metrics != nil && tel.Metrics.Enabled {
		r.Handle(tel.Metrics.Path, s.opts.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.NewError(
			api.ErrorTypeNotFound, "", "no route for "+r.Method+" "+r.URL.Path,
		))
	})

	return r
}
