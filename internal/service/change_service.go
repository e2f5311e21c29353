package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/brandonvio/brightthread/internal/lifecycle"
	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/policy"
	"github.com/brandonvio/brightthread/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// changeService implements ChangeService.
type changeService struct {
	orders     repository.OrderRepository
	inventory  repository.InventoryRepository
	executions repository.ExecutionRepository
	publisher  StatusPublisher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewChangeService creates the change evaluation and execution engine.
// publisher may be nil when status events are disabled.
func NewChangeService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	executions repository.ExecutionRepository,
	publisher StatusPublisher,
	logger zerolog.Logger,
) ChangeService {
	return &changeService{
		orders:     orders,
		inventory:  inventory,
		executions: executions,
		publisher:  publisher,
		logger:     logger.With().Str("service", "change").Logger(),
		now:        time.Now,
	}
}

// Evaluate decides whether the proposed change is allowed, what it costs
// and how much it delays delivery. Nothing is mutated.
func (s *changeService) Evaluate(ctx context.Context, orderID uuid.UUID, req *model.ChangeRequest) (*model.PolicyDecision, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", model.ErrInvalidChangeRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrOrderNotFound, orderID)
	}

	decision, err := s.evaluate(ctx, order, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("change_type", string(req.Type)).
		Str("order_status", string(order.Status)).
		Str("approval_status", string(decision.ApprovalStatus)).
		Str("cost_adjustment", decision.CostAdjustment.StringFixed(2)).
		Int("delay_days", decision.EstimatedDelayDays).
		Msg("change evaluated")

	return decision, nil
}

// evaluate runs the decision logic against an already-loaded order.
func (s *changeService) evaluate(ctx context.Context, order *model.Order, req *model.ChangeRequest) (*model.PolicyDecision, error) {
	// Terminal statuses have denied rows in the table, so there is no
	// separate terminal check here.
	rule := policy.Lookup(order.Status, req.Type)
	if rule.Denied() {
		return &model.PolicyDecision{
			ApprovalStatus:  model.NotAllowed,
			CostAdjustment:  decimal.Zero,
			ResultingStatus: order.Status,
			Reason:          rule.DenialReason,
		}, nil
	}

	decision := &model.PolicyDecision{
		CostAdjustment:       decimal.Zero,
		EstimatedDelayDays:   rule.DelayDays,
		ResultingStatus:      order.Status,
		RequiresConfirmation: rule.Outcome == policy.OutcomeConditional,
	}

	var (
		reasons        []string
		chargeCustomer bool
		shortfall      *model.InventoryRecord
	)

	switch req.Type {
	case model.ChangeQuantity:
		item := order.LineItem(*req.LineItemID)
		if item == nil {
			return nil, fmt.Errorf("%w: line item %s is not on order %s", model.ErrInvalidChangeRequest, req.LineItemID, order.ID)
		}
		delta := *req.NewQuantity - item.Quantity
		if delta == 0 {
			return nil, fmt.Errorf("%w: newQuantity equals the current quantity", model.ErrInvalidChangeRequest)
		}
		if delta > 0 {
			record, err := s.availability(ctx, item.Inventory, delta)
			if err != nil {
				return nil, err
			}
			if record != nil {
				shortfall = record
				break
			}
			// Surcharge applies to the added units only.
			added := item.UnitPrice.Mul(decimal.NewFromInt(int64(delta)))
			surcharge := added.Mul(rule.CostPercent).Div(hundred).Round(2)
			decision.CostAdjustment = surcharge
			if surcharge.IsPositive() {
				chargeCustomer = true
				reasons = append(reasons, fmt.Sprintf("%s%% surcharge on the %d added units ($%s)",
					rule.CostPercent, delta, surcharge.StringFixed(2)))
			}
		} else {
			// Decreases never cost anything; removed units are forfeited
			// once materials are committed and carry no production delay.
			decision.EstimatedDelayDays = 0
			if rule.ForfeitOnDecrease {
				reasons = append(reasons, "no refund for removed units; materials already committed")
			}
		}

	case model.ChangeSize, model.ChangeColor:
		item := order.LineItem(*req.LineItemID)
		if item == nil {
			return nil, fmt.Errorf("%w: line item %s is not on order %s", model.ErrInvalidChangeRequest, req.LineItemID, order.ID)
		}
		newKey := item.Inventory
		if req.Type == model.ChangeSize {
			newKey.Size = *req.NewSize
		} else {
			newKey.Color = *req.NewColor
		}
		if newKey == item.Inventory {
			return nil, fmt.Errorf("%w: requested %s equals the current value", model.ErrInvalidChangeRequest, strings.ToLower(string(req.Type)))
		}
		record, err := s.availability(ctx, newKey, item.Quantity)
		if err != nil {
			return nil, err
		}
		if record != nil {
			shortfall = record
			break
		}
		surcharge := item.Value().Mul(rule.CostPercent).Div(hundred).Round(2)
		decision.CostAdjustment = surcharge
		if surcharge.IsPositive() {
			chargeCustomer = true
			reasons = append(reasons, fmt.Sprintf("%s%% surcharge on the affected line ($%s)",
				rule.CostPercent, surcharge.StringFixed(2)))
		}

	case model.ChangeArtwork:
		// Artwork is order-level, so the surcharge basis is the order total.
		surcharge := order.TotalAmount.Mul(rule.CostPercent).Div(hundred).Round(2)
		decision.CostAdjustment = surcharge
		if surcharge.IsPositive() {
			chargeCustomer = true
			reasons = append(reasons, fmt.Sprintf("%s%% artwork rework surcharge ($%s)",
				rule.CostPercent, surcharge.StringFixed(2)))
		}

	case model.ChangeAddress:
		// Flat fee only; handled below.

	case model.ChangeCancel:
		refund := order.TotalAmount.Mul(rule.RefundPercent).Div(hundred).Sub(rule.FlatFee).Round(2)
		if refund.IsNegative() {
			refund = decimal.Zero
		}
		decision.CostAdjustment = refund.Neg()
		decision.ResultingStatus = model.StatusCancelled
		penalty := order.TotalAmount.Sub(refund)
		if penalty.IsPositive() {
			chargeCustomer = true
		}
		reasons = append(reasons, fmt.Sprintf("cancellation refunds $%s of the $%s order total",
			refund.StringFixed(2), order.TotalAmount.StringFixed(2)))
	}

	if shortfall != nil {
		decision.ApprovalStatus = model.RequiresManualReview
		decision.CostAdjustment = decimal.Zero
		decision.EstimatedDelayDays = 0
		decision.RequiresConfirmation = false
		decision.Reason = fmt.Sprintf("insufficient inventory for %s/%s/%s: only %d available",
			shortfall.Key.ProductID, shortfall.Key.Color, shortfall.Key.Size, shortfall.AvailableQty)
		return decision, nil
	}

	if req.Type != model.ChangeCancel && rule.FlatFee.IsPositive() {
		decision.CostAdjustment = decision.CostAdjustment.Add(rule.FlatFee)
		chargeCustomer = true
		reasons = append(reasons, fmt.Sprintf("$%s handling fee", rule.FlatFee.StringFixed(2)))
	}

	if decision.EstimatedDelayDays > 0 {
		reasons = append(reasons, fmt.Sprintf("adds %d day(s) to delivery", decision.EstimatedDelayDays))
		earliest, err := lifecycle.CheckLeadTime(order.Status, order.RequestedDeliveryDate, decision.EstimatedDelayDays, s.now())
		if err != nil {
			decision.RequiresConfirmation = true
			reasons = append(reasons, fmt.Sprintf("delivery date must move to %s or later", earliest.Format("2006-01-02")))
		}
	}

	switch {
	case chargeCustomer && decision.EstimatedDelayDays > 0:
		decision.ApprovalStatus = model.AllowedWithCostDelay
	case chargeCustomer:
		decision.ApprovalStatus = model.AllowedWithCost
	case decision.EstimatedDelayDays > 0:
		decision.ApprovalStatus = model.AllowedWithDelay
	default:
		decision.ApprovalStatus = model.Allowed
	}

	decision.Reason = strings.Join(reasons, "; ")
	return decision, nil
}

// availability dry-runs an additional reservation of qty against the key.
// It returns a non-nil record when the reservation could not be satisfied,
// and nil when it could.
func (s *changeService) availability(ctx context.Context, key model.InventoryKey, qty int) (*model.InventoryRecord, error) {
	record, err := s.inventory.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check inventory: %w", err)
	}
	if record == nil {
		// Unknown combination reads as zero available.
		return &model.InventoryRecord{Key: key}, nil
	}
	if record.AvailableQty < qty {
		return record, nil
	}
	return nil, nil
}

// Execute applies a previously evaluated change as one atomic unit.
func (s *changeService) Execute(ctx context.Context, orderID uuid.UUID, req *model.ChangeRequest, decision model.PolicyDecision, idempotencyKey string) (*model.ExecutionResult, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", model.ErrInvalidChangeRequest)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", model.ErrInvalidChangeRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Idempotency: a key that was already used returns the stored result
	// without touching the order or the ledger.
	prior, err := s.executions.GetByKey(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if prior != nil {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("idempotency_key", idempotencyKey).
			Str("change_id", prior.ChangeID.String()).
			Msg("duplicate execution; returning stored result")
		return prior, nil
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrOrderNotFound, orderID)
	}

	// Guard against stale-decision replay: the decision the caller
	// confirmed must still match a fresh evaluation.
	fresh, err := s.evaluate(ctx, order, req)
	if err != nil {
		return nil, err
	}
	if !fresh.Matches(decision) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("supplied_status", string(decision.ApprovalStatus)).
			Str("fresh_status", string(fresh.ApprovalStatus)).
			Msg("stale decision rejected")
		return nil, fmt.Errorf("%w: re-evaluate the change and confirm again", model.ErrStaleDecision)
	}
	if !fresh.ApprovalStatus.Executable() {
		return nil, fmt.Errorf("%w: approval status is %s", model.ErrDecisionNotExecutable, fresh.ApprovalStatus)
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute change: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	previousStatus := order.Status
	now := s.now()

	if err = s.apply(ctx, tx, order, req); err != nil {
		return nil, err
	}

	if fresh.EstimatedDelayDays > 0 {
		order.RequestedDeliveryDate = order.RequestedDeliveryDate.AddDate(0, 0, fresh.EstimatedDelayDays)
	}

	if fresh.ResultingStatus != previousStatus {
		if err = lifecycle.Validate(previousStatus, fresh.ResultingStatus); err != nil {
			return nil, err
		}
		order.Status = fresh.ResultingStatus
		entry := model.OrderStatusHistory{
			ID:             uuid.New(),
			OrderID:        order.ID,
			Status:         order.Status,
			TransitionedAt: now,
		}
		if err = s.orders.AppendStatusHistory(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	order.UpdatedAt = now
	if err = s.orders.Update(ctx, tx, order); err != nil {
		return nil, err
	}

	result := &model.ExecutionResult{
		ChangeID:   uuid.New(),
		Order:      *order,
		Decision:   *fresh,
		ExecutedAt: now,
	}
	if err = s.executions.Create(ctx, tx, idempotencyKey, result); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit change")
		return nil, fmt.Errorf("failed to execute change: %w", err)
	}

	if s.publisher != nil && order.Status != previousStatus {
		s.publisher.PublishStatusChange(ctx, order.ID, previousStatus, order.Status)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("change_id", result.ChangeID.String()).
		Str("change_type", string(req.Type)).
		Str("status", string(order.Status)).
		Msg("change executed")

	return result, nil
}

// apply performs the per-type order and ledger mutations inside the
// transaction. The request has already passed a fresh evaluation.
func (s *changeService) apply(ctx context.Context, tx pgx.Tx, order *model.Order, req *model.ChangeRequest) error {
	switch req.Type {
	case model.ChangeQuantity:
		item := order.LineItem(*req.LineItemID)
		delta := *req.NewQuantity - item.Quantity
		if delta > 0 {
			if err := s.inventory.Reserve(ctx, tx, item.Inventory, delta); err != nil {
				return err
			}
		} else {
			if err := s.inventory.Release(ctx, tx, item.Inventory, -delta); err != nil {
				return err
			}
		}
		item.Quantity = *req.NewQuantity
		if err := s.orders.UpdateLineItem(ctx, tx, item); err != nil {
			return err
		}
		rule := policy.Lookup(order.Status, req.Type)
		if !(delta < 0 && rule.ForfeitOnDecrease) {
			order.TotalAmount = order.LineItemTotal()
		}

	case model.ChangeSize, model.ChangeColor:
		item := order.LineItem(*req.LineItemID)
		newKey := item.Inventory
		if req.Type == model.ChangeSize {
			newKey.Size = *req.NewSize
		} else {
			newKey.Color = *req.NewColor
		}
		if err := s.inventory.Release(ctx, tx, item.Inventory, item.Quantity); err != nil {
			return err
		}
		if err := s.inventory.Reserve(ctx, tx, newKey, item.Quantity); err != nil {
			return err
		}
		item.Inventory = newKey
		if err := s.orders.UpdateLineItem(ctx, tx, item); err != nil {
			return err
		}

	case model.ChangeArtwork:
		order.ArtworkID = req.NewArtworkID

	case model.ChangeAddress:
		order.ShippingAddress = *req.NewAddress

	case model.ChangeCancel:
		for i := range order.LineItems {
			item := &order.LineItems[i]
			if err := s.inventory.Release(ctx, tx, item.Inventory, item.Quantity); err != nil {
				return err
			}
		}
	}

	return nil
}
