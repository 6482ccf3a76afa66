// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ExpressedAi/Sidechain/config"
	"github.com/ExpressedAi/Sidechain/pkg/api/handlers"
	"github.com/ExpressedAi/Sidechain/pkg/api/middleware"
	"github.com/ExpressedAi/Sidechain/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Memory handles chunk-registry and selection endpoints
	Memory *handlers.MemoryHandler

	// Learning handles feedback, usage, and learned-state endpoints
	Learning *handlers.LearningHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// WebSocket streams engine events
	WebSocket *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	// Register global middleware. Tracing runs outermost so RequestID can
	// tag the server span and later stages see trace ids on the context.
	r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	// Add metrics middleware if provided
	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(&cfg.Server.RateLimit))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.Timeout(cfg.Server.HTTP.ReadTimeout))

	// Register routes
	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/profiles/{profileID}", func(r chi.Router) {
			if handlers.Memory != nil {
				r.Post("/memories", handlers.Memory.RememberMemories)
				r.Get("/memories", handlers.Memory.ListMemories)
				r.Delete("/memories", handlers.Memory.ForgetMemories)
				r.Post("/select", handlers.Memory.SelectMemories)
			}

			if handlers.Learning != nil {
				r.Post("/feedback", handlers.Learning.ApplyFeedback)
				r.Post("/usage", handlers.Learning.RecordUsage)
				r.Get("/ratings", handlers.Learning.GetRatings)
				r.Get("/interactions", handlers.Learning.GetInteractions)
			}
		})
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}

	// Event stream
	if handlers.WebSocket != nil {
		r.Get("/ws", handlers.WebSocket.ServeHTTP)
	}
}
