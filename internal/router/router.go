package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/handler"
	"github.com/brandonvio/brightthread/internal/middleware"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	orderHandler *handler.OrderHandler,
	changeHandler *handler.ChangeHandler,
	inventoryHandler *handler.InventoryHandler,
	policyHandler *handler.PolicyHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Create)
			r.Get("/{id}", orderHandler.GetByID)
			r.Get("/{id}/history", orderHandler.GetHistory)
			r.Put("/{id}/status", orderHandler.UpdateStatus)

			r.Post("/{id}/changes/evaluate", changeHandler.Evaluate)
			r.Post("/{id}/changes/execute", changeHandler.Execute)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", inventoryHandler.List)
			r.Get("/{productId}/{color}/{size}", inventoryHandler.GetByKey)
		})

		r.Route("/policy", func(r chi.Router) {
			r.Get("/", policyHandler.GetDocument)
			r.Get("/{status}", policyHandler.GetSummary)
		})
	})

	return r
}
