package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CallIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Roadmap actions are public; the remote credential stays server-side.
		r.Route("/roadmap", func(r chi.Router) {
			r.Get("/features", h.ListFeatures)
			r.Post("/suggestions", h.SubmitSuggestion)
			r.Post("/vote", h.Vote)
		})
	})

	return r
}
