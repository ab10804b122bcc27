package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Webhook ingestion (API key required)
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(h.apiKeyAuth)
		r.Get("/notion", h.NotionWebhookProbe)
		r.Post("/notion", h.NotionWebhook)
		r.Get("/airtable", h.AirtableWebhookFetch)
		r.Post("/airtable", h.AirtableWebhook)
	})

	// Build records (API key required)
	r.Route("/builds", func(r chi.Router) {
		r.Use(h.apiKeyAuth)
		r.Get("/{build_id}", h.GetBuild)
		r.Post("/{build_id}/status", h.UpdateBuildStatus)
	})

	// OAuth connections
	r.Route("/connections", func(r chi.Router) {
		// Provider callbacks are unauthenticated; the single-use state
		// parameter binds them to the initiating user.
		r.Get("/{service}/callback", h.OAuthCallback)

		r.Group(func(r chi.Router) {
			r.Use(h.apiKeyAuth)
			r.Get("/", h.ListConnections)
			r.Get("/{service}/authorize", h.Authorize)
			r.Delete("/{service}", h.Disconnect)
		})
	})

	// API key management
	r.Route("/api/keys", func(r chi.Router) {
		// Key creation bootstraps a new user and cannot require a key.
		r.Post("/", h.CreateKey)

		r.Group(func(r chi.Router) {
			r.Use(h.apiKeyAuth)
			r.Get("/", h.ListKeys)
			r.Delete("/{id}", h.DeleteKey)
		})
	})

	return r
}
