// Package policy holds the static change-policy rule table: the mapping
// from (order status, change type) to allowed/cost/delay outcome. Lookups
// are pure and total; an undefined pair is a programming error.
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/brandonvio/brightthread/internal/model"
)

// Outcome is the raw verdict of a rule before costs and inventory are
// considered.
type Outcome string

const (
	OutcomeAllowed     Outcome = "allowed"
	OutcomeConditional Outcome = "conditional"
	OutcomeDenied      Outcome = "denied"
)

// Rule is one cell of the policy table.
//
// CostPercent applies to the affected value: the target line item's value
// for size/color changes, the added units' value for quantity increases,
// and the order total for artwork changes. RefundPercent applies to the
// order total and is only meaningful on CANCEL cells.
type Rule struct {
	Outcome       Outcome
	CostPercent   decimal.Decimal
	FlatFee       decimal.Decimal
	DelayDays     int
	RefundPercent decimal.Decimal
	Escalate      bool
	DenialReason  string

	// ForfeitOnDecrease marks quantity cells where removed units are not
	// refunded: inventory is released but the order total stands
	// (materials already committed).
	ForfeitOnDecrease bool
}

// Denied reports whether the rule forbids the change outright.
func (r Rule) Denied() bool {
	return r.Outcome == OutcomeDenied
}

func pct(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func allowed() Rule {
	return Rule{Outcome: OutcomeAllowed}
}

func conditional(costPercent int64, delayDays int) Rule {
	return Rule{Outcome: OutcomeConditional, CostPercent: pct(costPercent), DelayDays: delayDays}
}

func allowedFee(fee int64, delayDays int) Rule {
	return Rule{Outcome: OutcomeAllowed, FlatFee: decimal.NewFromInt(fee), DelayDays: delayDays}
}

func conditionalFee(fee int64, delayDays int) Rule {
	return Rule{Outcome: OutcomeConditional, FlatFee: decimal.NewFromInt(fee), DelayDays: delayDays}
}

func cancelAllowed(refundPercent int64) Rule {
	return Rule{Outcome: OutcomeAllowed, RefundPercent: pct(refundPercent)}
}

func cancelConditional(refundPercent, fee int64) Rule {
	return Rule{Outcome: OutcomeConditional, RefundPercent: pct(refundPercent), FlatFee: decimal.NewFromInt(fee)}
}

func denied(reason string) Rule {
	return Rule{Outcome: OutcomeDenied, DenialReason: reason}
}

const (
	reasonPackaged  = "order already packaged"
	reasonShipped   = "order already shipped"
	reasonDelivered = "order already delivered"
	reasonTerminal  = "order is in a terminal state"
)

var table = map[model.OrderStatus]map[model.ChangeType]Rule{
	model.StatusCreated: {
		model.ChangeQuantity: allowed(),
		model.ChangeSize:     allowed(),
		model.ChangeColor:    allowed(),
		model.ChangeArtwork:  allowed(),
		model.ChangeAddress:  allowed(),
		model.ChangeCancel:   cancelAllowed(100),
	},
	model.StatusApproved: {
		model.ChangeQuantity: allowed(),
		model.ChangeSize:     allowed(),
		model.ChangeColor:    allowed(),
		model.ChangeArtwork:  conditional(15, 2),
		model.ChangeAddress:  allowed(),
		model.ChangeCancel:   cancelConditional(100, 25),
	},
	model.StatusInProduction: {
		// Increases are charged on the added units only; decreases release
		// stock but forfeit the removed units' value.
		model.ChangeQuantity: Rule{
			Outcome:           OutcomeConditional,
			CostPercent:       pct(25),
			DelayDays:         5,
			ForfeitOnDecrease: true,
		},
		model.ChangeSize:    conditional(30, 5),
		model.ChangeColor:   conditional(30, 5),
		model.ChangeArtwork: conditional(50, 7),
		model.ChangeAddress: allowedFee(15, 1),
		model.ChangeCancel:  cancelConditional(50, 0),
	},
	model.StatusReadyToShip: {
		model.ChangeQuantity: denied(reasonPackaged),
		model.ChangeSize:     denied(reasonPackaged),
		model.ChangeColor:    denied(reasonPackaged),
		model.ChangeArtwork:  denied(reasonPackaged),
		// Carrier redirect is still possible before pickup; expect 1-2
		// business days of delay.
		model.ChangeAddress: conditionalFee(25, 2),
		model.ChangeCancel: Rule{
			Outcome:      OutcomeDenied,
			Escalate:     true,
			DenialReason: reasonPackaged + "; cancellation requires manual escalation",
		},
	},
	model.StatusShipped: {
		model.ChangeQuantity: denied(reasonShipped),
		model.ChangeSize:     denied(reasonShipped),
		model.ChangeColor:    denied(reasonShipped),
		model.ChangeArtwork:  denied(reasonShipped),
		model.ChangeAddress:  denied(reasonShipped),
		model.ChangeCancel:   denied(reasonShipped),
	},
	model.StatusDelivered: {
		model.ChangeQuantity: denied(reasonDelivered),
		model.ChangeSize:     denied(reasonDelivered),
		model.ChangeColor:    denied(reasonDelivered),
		model.ChangeArtwork:  denied(reasonDelivered),
		model.ChangeAddress:  denied(reasonDelivered),
		model.ChangeCancel:   denied(reasonDelivered + "; returns are accepted within 30 days of delivery"),
	},
	model.StatusReturned: {
		model.ChangeQuantity: denied(reasonTerminal),
		model.ChangeSize:     denied(reasonTerminal),
		model.ChangeColor:    denied(reasonTerminal),
		model.ChangeArtwork:  denied(reasonTerminal),
		model.ChangeAddress:  denied(reasonTerminal),
		model.ChangeCancel:   denied(reasonTerminal),
	},
	model.StatusCancelled: {
		model.ChangeQuantity: denied(reasonTerminal),
		model.ChangeSize:     denied(reasonTerminal),
		model.ChangeColor:    denied(reasonTerminal),
		model.ChangeArtwork:  denied(reasonTerminal),
		model.ChangeAddress:  denied(reasonTerminal),
		model.ChangeCancel:   denied(reasonTerminal),
	},
}

// Lookup returns the rule for the given status and change type. Every
// defined (status, change type) pair has a rule; asking for an undefined
// pair panics rather than returning a soft "not found".
func Lookup(status model.OrderStatus, change model.ChangeType) Rule {
	rules, ok := table[status]
	if !ok {
		panic(fmt.Sprintf("policy: no rules defined for order status %q", status))
	}
	rule, ok := rules[change]
	if !ok {
		panic(fmt.Sprintf("policy: no rule defined for status %q, change type %q", status, change))
	}
	return rule
}
