package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/service"
)

// InventoryHandler handles inventory ledger read requests.
type InventoryHandler struct {
	service service.InventoryService
	logger  zerolog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(service service.InventoryService, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With().Str("handler", "inventory").Logger(),
	}
}

// List handles GET /api/inventory requests.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetByKey handles GET /api/inventory/{productId}/{color}/{size} requests.
func (h *InventoryHandler) GetByKey(w http.ResponseWriter, r *http.Request) {
	key := model.InventoryKey{
		ProductID: chi.URLParam(r, "productId"),
		Color:     chi.URLParam(r, "color"),
		Size:      chi.URLParam(r, "size"),
	}

	record, err := h.service.GetByKey(r.Context(), key)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
