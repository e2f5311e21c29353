package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/policydoc"
)

// PolicyHandler serves the customer-facing policy document.
type PolicyHandler struct {
	doc    *policydoc.Document
	logger zerolog.Logger
}

// NewPolicyHandler creates a new policy document handler.
func NewPolicyHandler(doc *policydoc.Document, logger zerolog.Logger) *PolicyHandler {
	return &PolicyHandler{
		doc:    doc,
		logger: logger.With().Str("handler", "policy").Logger(),
	}
}

// GetDocument handles GET /api/policy requests, returning the full
// markdown document.
func (h *PolicyHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.doc.Raw()))
}

// summaryResponse is the body for a per-status policy summary.
type summaryResponse struct {
	Status  model.OrderStatus `json:"status"`
	Summary string            `json:"summary"`
}

// GetSummary handles GET /api/policy/{status} requests, returning the
// policy section for one order status.
func (h *PolicyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(chi.URLParam(r, "status"))

	summary, err := h.doc.Summary(status)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{Status: status, Summary: summary})
}
