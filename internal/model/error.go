package model

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeInvalidChangeRequest  = "INVALID_CHANGE_REQUEST"
	ErrCodeInvalidTransition     = "INVALID_STATE_TRANSITION"
	ErrCodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	ErrCodeInventoryNotFound     = "INVENTORY_NOT_FOUND"
	ErrCodeLeadTimeViolation     = "LEAD_TIME_VIOLATION"
	ErrCodeStaleDecision         = "STALE_DECISION"
	ErrCodeDecisionNotExecutable = "DECISION_NOT_EXECUTABLE"
	ErrCodeReservationUnderflow  = "RESERVATION_UNDERFLOW"
	ErrCodeOrderValidation       = "ORDER_VALIDATION_FAILED"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// DomainError is a caller-visible business error. Distinct kinds are never
// collapsed into a generic failure.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrOrderNotFound         = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidChangeRequest  = NewDomainError(ErrCodeInvalidChangeRequest, "Change request is malformed or missing required fields")
	ErrInvalidTransition     = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrInsufficientInventory = NewDomainError(ErrCodeInsufficientInventory, "Requested quantity exceeds available inventory")
	ErrInventoryNotFound     = NewDomainError(ErrCodeInventoryNotFound, "No inventory record for the requested product, color and size")
	ErrLeadTimeViolation     = NewDomainError(ErrCodeLeadTimeViolation, "Requested delivery date violates the minimum lead time")
	ErrStaleDecision         = NewDomainError(ErrCodeStaleDecision, "Decision no longer matches a fresh evaluation of the order")
	ErrDecisionNotExecutable = NewDomainError(ErrCodeDecisionNotExecutable, "Decision is not executable")
	ErrReservationUnderflow  = NewDomainError(ErrCodeReservationUnderflow, "Release would push reserved quantity below zero")
	ErrOrderValidation       = NewDomainError(ErrCodeOrderValidation, "Order fails validation rules")
)
