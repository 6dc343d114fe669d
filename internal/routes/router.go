package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jirapulse/internal/api"
	"jirapulse/internal/config"
	"jirapulse/internal/db"
	"jirapulse/internal/logging"
	"jirapulse/internal/middleware"
)

// RegisterRoutes builds the HTTP surface: health and metrics are open, the
// admin API sits behind the API key and the per-IP rate limit.
func RegisterRoutes(cfg *config.Config, syncHandlers *api.SyncHandlers, configHandlers *api.ConfigHandlers, adminHandlers *api.AdminHandlers, upSince time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, upSince))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware)
		r.Use(middleware.APIKeyMiddleware(cfg.APIKey))

		r.Route("/sync", func(r chi.Router) {
			r.Post("/start", syncHandlers.StartSync)
			r.Post("/stop", syncHandlers.StopSync)
			r.Get("/progress", syncHandlers.GetProgress)
			r.Get("/status", syncHandlers.GetStatus)
			r.Get("/history", syncHandlers.ListHistory)
			r.Get("/history/{syncID}", syncHandlers.GetRunDetails)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/field-mappings", configHandlers.GetFieldMappings)
			r.Post("/field-mappings", configHandlers.SaveFieldMappings)
			r.Get("/field-mappings/history", configHandlers.GetMappingHistory)
			r.Post("/schema/sync", configHandlers.TriggerSchemaSync)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/issues", adminHandlers.GetIssueStats)
			r.Post("/issues/clear", adminHandlers.ClearIssues)
		})
	})

	logging.Info("Router initialized with metrics and logging middleware")
	return r
}
