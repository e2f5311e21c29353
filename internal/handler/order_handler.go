package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/service"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetHistory handles GET /api/orders/{id}/history requests.
func (h *OrderHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	history, err := h.service.GetStatusHistory(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// statusUpdateRequest is the body for PUT /api/orders/{id}/status.
type statusUpdateRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateStatus handles PUT /api/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required", h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// orderIDParam parses the {id} path parameter, writing a 400 on failure.
func orderIDParam(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", logger)
		return uuid.Nil, false
	}
	return orderID, true
}
