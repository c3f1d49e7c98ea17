package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(publicReadMiddleware)
		r.Get("/", s.handleStatus)
		r.Get("/status.json", s.handleStatus)
	})

	r.Route("/sensors/{sensor}", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Put("/", s.handleUpdateSensor)
	})

	r.Get("/health", s.handleHealth)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.audit != nil {
		r.Get("/audit", s.handleListAudit)
	}
	if s.hub != nil {
		r.Get("/ws", s.handleWebSocket)
	}

	return r
}
