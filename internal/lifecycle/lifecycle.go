// Package lifecycle validates order status transitions and lead-time
// constraints. It is pure: persistence of transitions and history rows is
// the caller's job.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/brandonvio/brightthread/internal/model"
)

// ReturnWindowDays is how long after delivery a return is accepted.
const ReturnWindowDays = 30

// validNext holds the complete transition graph. Forward edges only, plus
// the cancellation edges out of the first three states and the
// time-boxed return edge out of DELIVERED.
var validNext = map[model.OrderStatus]map[model.OrderStatus]bool{
	model.StatusCreated:      {model.StatusApproved: true, model.StatusCancelled: true},
	model.StatusApproved:     {model.StatusInProduction: true, model.StatusCancelled: true},
	model.StatusInProduction: {model.StatusReadyToShip: true, model.StatusCancelled: true},
	model.StatusReadyToShip:  {model.StatusShipped: true},
	model.StatusShipped:      {model.StatusDelivered: true},
	model.StatusDelivered:    {model.StatusReturned: true},
	model.StatusReturned:     {},
	model.StatusCancelled:    {},
}

// minLeadDays is the minimum number of days between "now" and the
// requested delivery date, per current status. Later states have no lead
// time to enforce because delivery-affecting changes are denied there.
var minLeadDays = map[model.OrderStatus]int{
	model.StatusCreated:      14,
	model.StatusApproved:     12,
	model.StatusInProduction: 7,
}

// CanTransition reports whether the edge from one status to another exists.
func CanTransition(from, to model.OrderStatus) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no edges leave the status. DELIVERED is
// treated as terminal for change evaluation even though the return edge
// exists; use CanTransition for the raw graph.
func IsTerminal(status model.OrderStatus) bool {
	switch status {
	case model.StatusDelivered, model.StatusReturned, model.StatusCancelled:
		return true
	}
	return false
}

// Validate fails fast when the requested edge is not in the transition
// graph.
func Validate(from, to model.OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, from, to)
	}
	return nil
}

// ValidateReturn checks the 30-day return window against the time the
// order was delivered.
func ValidateReturn(deliveredAt, now time.Time) error {
	if now.After(deliveredAt.AddDate(0, 0, ReturnWindowDays)) {
		return fmt.Errorf("%w: return window of %d days has passed", model.ErrInvalidTransition, ReturnWindowDays)
	}
	return nil
}

// MinLeadTime returns the minimum lead time in days for the status, and
// whether one is enforced at all.
func MinLeadTime(status model.OrderStatus) (int, bool) {
	days, ok := minLeadDays[status]
	return days, ok
}

// CheckLeadTime projects the delivery date forward by delayDays and fails
// with a lead-time violation when the projected date lands inside the
// minimum lead window for the current status. The returned earliest date
// is the first feasible delivery date; it is only meaningful on error.
func CheckLeadTime(status model.OrderStatus, deliveryDate time.Time, delayDays int, now time.Time) (time.Time, error) {
	minDays, ok := minLeadDays[status]
	if !ok {
		return deliveryDate, nil
	}

	projected := deliveryDate.AddDate(0, 0, delayDays)
	earliest := now.AddDate(0, 0, minDays)

	if projected.Before(earliest) {
		return earliest, fmt.Errorf(
			"%w: delivery on %s is inside the %d-day minimum lead time for %s orders",
			model.ErrLeadTimeViolation, projected.Format("2006-01-02"), minDays, status,
		)
	}
	return projected, nil
}
