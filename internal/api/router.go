// Package api assembles the HTTP trigger surface: event receivers, job
// status and operator endpoints.
package api

import (
	"net/http"

	"github.com/dvloznov/finance-ingest/internal/api/handlers"
	"github.com/dvloznov/finance-ingest/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig holds the handlers and settings for NewRouter.
type RouterConfig struct {
	Events       *handlers.EventsHandler
	Jobs         *handlers.JobsHandler
	Maintenance  *handlers.MaintenanceHandler
	TriggerToken string
	Log          zerolog.Logger
}

// NewRouter builds the chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Log))
	r.Use(middleware.Recovery(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         3600,
	}))

	r.Get("/health", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.TriggerToken))

		r.Route("/events", func(r chi.Router) {
			r.Post("/raw-file-created", cfg.Events.RawFileCreated)
			r.Post("/user-created", cfg.Events.UserCreated)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/jobs", cfg.Jobs.ListJobs)
			r.Get("/jobs/{id}", cfg.Jobs.GetJob)
			if cfg.Maintenance != nil {
				r.Post("/users/{userID}/sweep", cfg.Maintenance.Sweep)
			}
		})
	})

	return r
}
