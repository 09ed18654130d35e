package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(instrument(g.logger, g.metrics))

	// Public.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth, g.logger))
		}
		r.Use(limitBody(g.config.MaxBodyBytes))

		r.Get("/status", g.handleStatus())
		r.Post("/normalize/{source}", g.handleNormalize())
		r.Post("/serialize", g.handleSerialize())
		r.Get("/stream", g.handleStream())

		// Message routes exist only when a store is configured.
		if g.store != nil {
			r.Get("/messages/{id}", g.handleGetMessage())
			r.Get("/threads/{id}/messages", g.handleListThread())
			r.Post("/threads/{id}/read", g.handleMarkRead())
		}
	})

	return r
}
