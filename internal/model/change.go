package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChangeType is the kind of modification requested on an order.
type ChangeType string

const (
	ChangeQuantity ChangeType = "QUANTITY"
	ChangeSize     ChangeType = "SIZE"
	ChangeColor    ChangeType = "COLOR"
	ChangeArtwork  ChangeType = "ARTWORK"
	ChangeAddress  ChangeType = "ADDRESS"
	ChangeCancel   ChangeType = "CANCEL"
)

// AllChangeTypes lists every defined change type.
var AllChangeTypes = []ChangeType{
	ChangeQuantity,
	ChangeSize,
	ChangeColor,
	ChangeArtwork,
	ChangeAddress,
	ChangeCancel,
}

// ChangeRequest is a structured, pre-extracted modification request. The
// engine never guesses intent: a request missing a required field for its
// type is rejected outright.
type ChangeRequest struct {
	Type         ChangeType `json:"type"`
	LineItemID   *uuid.UUID `json:"lineItemId,omitempty"`
	NewQuantity  *int       `json:"newQuantity,omitempty"`
	NewSize      *string    `json:"newSize,omitempty"`
	NewColor     *string    `json:"newColor,omitempty"`
	NewArtworkID *uuid.UUID `json:"newArtworkId,omitempty"`
	NewAddress   *Address   `json:"newAddress,omitempty"`
}

// Validate checks that the request carries the fields its type requires.
func (r *ChangeRequest) Validate() error {
	switch r.Type {
	case ChangeQuantity:
		if r.LineItemID == nil {
			return invalidChange("quantity change requires lineItemId")
		}
		if r.NewQuantity == nil {
			return invalidChange("quantity change requires newQuantity")
		}
		if *r.NewQuantity <= 0 {
			return invalidChange("newQuantity must be greater than zero")
		}
	case ChangeSize:
		if r.LineItemID == nil {
			return invalidChange("size change requires lineItemId")
		}
		if r.NewSize == nil || *r.NewSize == "" {
			return invalidChange("size change requires newSize")
		}
	case ChangeColor:
		if r.LineItemID == nil {
			return invalidChange("color change requires lineItemId")
		}
		if r.NewColor == nil || *r.NewColor == "" {
			return invalidChange("color change requires newColor")
		}
	case ChangeArtwork:
		if r.NewArtworkID == nil {
			return invalidChange("artwork change requires newArtworkId")
		}
	case ChangeAddress:
		if r.NewAddress == nil {
			return invalidChange("address change requires newAddress")
		}
	case ChangeCancel:
		// No extra fields.
	default:
		return invalidChange(fmt.Sprintf("unknown change type %q", r.Type))
	}
	return nil
}

func invalidChange(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidChangeRequest, detail)
}

// ApprovalStatus is the engine's verdict on a proposed change.
type ApprovalStatus string

const (
	Allowed              ApprovalStatus = "ALLOWED"
	AllowedWithCost      ApprovalStatus = "ALLOWED_WITH_COST"
	AllowedWithDelay     ApprovalStatus = "ALLOWED_WITH_DELAY"
	AllowedWithCostDelay ApprovalStatus = "ALLOWED_WITH_COST_AND_DELAY"
	RequiresManualReview ApprovalStatus = "REQUIRES_MANUAL_REVIEW"
	NotAllowed           ApprovalStatus = "NOT_ALLOWED"
)

// Executable reports whether a decision with this status may be executed.
func (s ApprovalStatus) Executable() bool {
	return s != NotAllowed && s != RequiresManualReview
}

// PolicyDecision is the structured answer returned by Evaluate. No mutation
// has happened when a decision is produced. CostAdjustment is signed:
// surcharges are positive, refunds negative.
type PolicyDecision struct {
	ApprovalStatus       ApprovalStatus  `json:"approvalStatus"`
	CostAdjustment       decimal.Decimal `json:"costAdjustment"`
	EstimatedDelayDays   int             `json:"estimatedDelayDays"`
	ResultingStatus      OrderStatus     `json:"resultingStatus"`
	RequiresConfirmation bool            `json:"requiresConfirmation"`
	Reason               string          `json:"reason,omitempty"`
}

// Matches reports whether two decisions agree on the fields that make an
// execution safe. Used to detect stale decisions at execute time.
func (d PolicyDecision) Matches(other PolicyDecision) bool {
	return d.ApprovalStatus == other.ApprovalStatus &&
		d.CostAdjustment.Equal(other.CostAdjustment) &&
		d.EstimatedDelayDays == other.EstimatedDelayDays &&
		d.ResultingStatus == other.ResultingStatus
}

// ExecutionResult is the outcome of an executed change: the new order
// snapshot plus a change id for audit correlation.
type ExecutionResult struct {
	ChangeID   uuid.UUID      `json:"changeId"`
	Order      Order          `json:"order"`
	Decision   PolicyDecision `json:"decision"`
	ExecutedAt time.Time      `json:"executedAt"`
}
