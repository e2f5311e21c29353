package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/service"
)

// ChangeHandler exposes the two-phase change engine over HTTP: evaluate
// returns a decision without touching the order, execute applies a
// confirmed decision.
type ChangeHandler struct {
	service service.ChangeService
	logger  zerolog.Logger
}

// NewChangeHandler creates a new change handler.
func NewChangeHandler(service service.ChangeService, logger zerolog.Logger) *ChangeHandler {
	return &ChangeHandler{
		service: service,
		logger:  logger.With().Str("handler", "change").Logger(),
	}
}

// Evaluate handles POST /api/orders/{id}/changes/evaluate requests.
func (h *ChangeHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req model.ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	decision, err := h.service.Evaluate(r.Context(), orderID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// executeRequest is the body for POST /api/orders/{id}/changes/execute:
// the change request plus the decision the caller confirmed.
type executeRequest struct {
	Request  model.ChangeRequest  `json:"request"`
	Decision model.PolicyDecision `json:"decision"`
}

// Execute handles POST /api/orders/{id}/changes/execute requests. The
// Idempotency-Key header is required; retrying with the same key returns
// the original result without re-applying the change.
func (h *ChangeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		writeError(w, http.StatusBadRequest, "Idempotency-Key header is required", h.logger)
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	result, err := h.service.Execute(r.Context(), orderID, &req.Request, req.Decision, idempotencyKey)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
