package routes

import (
	"net/http"
	"time"

	"evewspace/sitetracker/internal/api"
	"evewspace/sitetracker/internal/config"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(cfg *config.Config, deps *api.Dependencies, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.Logging)
	if deps.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(deps.Metrics))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", constants.HeaderAPIKey, constants.HeaderUserID, constants.HeaderRequestID},
		ExposedHeaders:   []string{"Link", "Content-Disposition", constants.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	// health check and scrape endpoint
	r.Get("/healthCheck", api.HealthCheckHandler(deps.Repo.Store.DB(), deps.SQL, deps.Redis, upSince))
	r.Handle("/metrics", promhttp.Handler())

	handlers := api.NewHandlers(deps)
	RegisterAPIRoutes(r, cfg, deps, handlers)

	return r
}
