package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/inference-router/app"
	"github.com/upb/inference-router/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(deps.RequestMiddleware.PropagateRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(deps.RequestMiddleware.LogRequests)
	r.Use(chimiddleware.Recoverer)
	if deps.Config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.Config.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/completions", deps.RouterHandler.HandleCompletion)

		r.Route("/usage", func(r chi.Router) {
			r.Get("/", deps.RouterHandler.HandleGetUsage)
			r.Delete("/", deps.RouterHandler.HandleResetUsage)
			r.Get("/recent", deps.RouterHandler.HandleRecentRequests)
		})

		r.Get("/strategy", deps.RouterHandler.HandleGetStrategy)
		r.Put("/strategy", deps.RouterHandler.HandleSetStrategy)

		r.Get("/cost-projection", deps.RouterHandler.HandleCostProjection)
		r.Get("/providers", deps.RouterHandler.HandleListProviders)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
