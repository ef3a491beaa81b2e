package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the API and health routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", h.ListUsers)
		r.Post("/users", h.RegisterUser)

		r.Route("/stations", func(r chi.Router) {
			r.Get("/", h.ListStations)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetStation)
				r.Put("/assignment", h.AssignUser)
				r.Post("/start", h.StartRace)
				r.Post("/stop", h.StopRace)
			})
		})
	})
}

// Health pings the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			JSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
