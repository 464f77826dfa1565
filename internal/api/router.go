package api

import (
	"net/http"

	"github.com/bcnelson/cidr-group-central/internal/api/handler"
	"github.com/bcnelson/cidr-group-central/internal/api/middleware"
	"github.com/bcnelson/cidr-group-central/internal/registry"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(reg *registry.Registry, apiKey string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger))

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (auth required when configured, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(apiKey))

		// CIDR groups
		groupHandler := handler.NewGroupHandler(reg, logger)
		r.Get("/groups", groupHandler.List)
		r.Post("/groups", groupHandler.Create)
		r.Get("/groups/{name}", groupHandler.Get)
		r.Put("/groups/{name}", groupHandler.Update)
		r.Patch("/groups/{name}", groupHandler.Update)
		r.Delete("/groups/{name}", groupHandler.Delete)
	})

	return r
}
