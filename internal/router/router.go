package router

import (
	"net/http"

	"huanghe-analytics-api/internal/handler"
	"huanghe-analytics-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	ProjectHandler  *handler.ProjectHandler
	AnalysisHandler *handler.AnalysisHandler
	BehaviorHandler *handler.BehaviorHandler
	AdminHandler    *handler.AdminHandler
	AuthHandler     *handler.AuthHandler
	AuthMiddleware  func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		// Apply auth middleware only to this group
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		// API v1 routes
		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Project endpoints
			if cfg.ProjectHandler != nil {
				r.Route("/projects", func(r chi.Router) {
					r.Get("/", cfg.ProjectHandler.List)
					r.Post("/", cfg.ProjectHandler.Create)
					r.Route("/{project_id}", func(r chi.Router) {
						r.Get("/", cfg.ProjectHandler.Get)
						r.Put("/", cfg.ProjectHandler.Update)
						r.Delete("/", cfg.ProjectHandler.Delete)
						r.Post("/snapshots", cfg.ProjectHandler.IngestSnapshot)
						if cfg.AnalysisHandler != nil {
							r.Get("/analysis", cfg.AnalysisHandler.GetProjectAnalysis)
						}
					})
				})
			}

			// Per-user trading-behavior endpoints
			if cfg.BehaviorHandler != nil {
				r.Route("/users/{user_id}", func(r chi.Router) {
					r.Post("/timeline", cfg.BehaviorHandler.IngestTimeline)
					r.Put("/profile", cfg.BehaviorHandler.UpsertProfile)
					r.Get("/trading-behavior", cfg.BehaviorHandler.GetTradingBehavior)
				})
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Get("/health", cfg.AdminHandler.GetHealth)
				})
			}
		})
	})

	return r
}
