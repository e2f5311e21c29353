package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
)

// ErrorResponse represents an error response. Code carries the stable
// machine-readable error code; Error is the human-readable message.
type ErrorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeOrderNotFound:         http.StatusNotFound,
	model.ErrCodeInventoryNotFound:     http.StatusNotFound,
	model.ErrCodeInvalidChangeRequest:  http.StatusBadRequest,
	model.ErrCodeOrderValidation:       http.StatusBadRequest,
	model.ErrCodeInvalidTransition:     http.StatusConflict,
	model.ErrCodeInsufficientInventory: http.StatusConflict,
	model.ErrCodeLeadTimeViolation:     http.StatusConflict,
	model.ErrCodeStaleDecision:         http.StatusConflict,
	model.ErrCodeDecisionNotExecutable: http.StatusConflict,
}

// writeDomainError maps a service error to an HTTP response. Unknown
// errors become an opaque 500 so internals never leak to the client.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		logger.Warn().Str("code", domainErr.Code).Int("status", status).Str("error", err.Error()).Msg("request rejected")
		writeJSON(w, status, ErrorResponse{Code: domainErr.Code, Error: err.Error()})
		return
	}

	logger.Error().Err(err).Msg("handler error")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Code:  model.ErrCodeInternalError,
		Error: "internal server error",
	})
}
