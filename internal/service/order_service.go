package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/brandonvio/brightthread/internal/lifecycle"
	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/repository"
)

// Order validation limits. Minimum is across the whole order, maximum is
// per line item.
const (
	MinOrderQuantity    = 10
	MaxLineItemQuantity = 500
)

// orderService implements OrderService.
type orderService struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	publisher StatusPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service. publisher may be nil when
// status events are disabled.
func NewOrderService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	publisher StatusPublisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orders:    orders,
		inventory: inventory,
		publisher: publisher,
		logger:    logger.With().Str("service", "order").Logger(),
		now:       time.Now,
	}
}

// Create validates the request, reserves inventory for every line item and
// persists the order, all in one transaction. A failed reservation rolls
// back everything including earlier reservations.
func (s *orderService) Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	now := s.now()

	if err := s.validateRequest(req, now); err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:                    uuid.New(),
		Status:                model.StatusCreated,
		ShippingAddress:       req.ShippingAddress,
		ArtworkID:             req.ArtworkID,
		RequestedDeliveryDate: req.RequestedDeliveryDate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	total := decimal.Zero
	for _, item := range req.Items {
		line := model.OrderLineItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Inventory: item.Inventory,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		order.LineItems = append(order.LineItems, line)
		total = total.Add(line.Value())
	}
	order.TotalAmount = total

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	for _, line := range order.LineItems {
		if err = s.inventory.Reserve(ctx, tx, line.Inventory, line.Quantity); err != nil {
			return nil, err
		}
	}

	if err = s.orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	entry := model.OrderStatusHistory{
		ID:             uuid.New(),
		OrderID:        order.ID,
		Status:         model.StatusCreated,
		TransitionedAt: now,
	}
	if err = s.orders.AppendStatusHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit order creation")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("line_items", len(order.LineItems)).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Msg("order created")

	return order, nil
}

// validateRequest enforces the order-level quantity and lead-time rules.
func (s *orderService) validateRequest(req *model.OrderRequest, now time.Time) error {
	if req == nil || len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", model.ErrOrderValidation)
	}

	totalQty := 0
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has non-positive quantity", model.ErrOrderValidation, i)
		}
		if item.Quantity > MaxLineItemQuantity {
			return fmt.Errorf("%w: item %d exceeds the %d unit line maximum", model.ErrOrderValidation, i, MaxLineItemQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d has a negative unit price", model.ErrOrderValidation, i)
		}
		if item.Inventory.ProductID == "" || item.Inventory.Color == "" || item.Inventory.Size == "" {
			return fmt.Errorf("%w: item %d is missing product, color or size", model.ErrOrderValidation, i)
		}
		totalQty += item.Quantity
	}
	if totalQty < MinOrderQuantity {
		return fmt.Errorf("%w: order quantity %d is below the %d unit minimum", model.ErrOrderValidation, totalQty, MinOrderQuantity)
	}

	if _, err := lifecycle.CheckLeadTime(model.StatusCreated, req.RequestedDeliveryDate, 0, now); err != nil {
		return err
	}

	return nil
}

// GetByID retrieves an order with its line items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
	}
	return order, nil
}

// GetStatusHistory retrieves the order's transition audit trail.
func (s *orderService) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]model.OrderStatusHistory, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
	}
	return s.orders.GetStatusHistory(ctx, id)
}

// UpdateStatus moves the order along the lifecycle graph. Cancellation is
// rejected here because it must release inventory; that path goes through
// the change engine.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus model.OrderStatus) (*model.Order, error) {
	if newStatus == model.StatusCancelled {
		return nil, fmt.Errorf("%w: cancellation goes through the change endpoint", model.ErrInvalidTransition)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
	}

	if err = lifecycle.Validate(order.Status, newStatus); err != nil {
		return nil, err
	}

	now := s.now()

	if newStatus == model.StatusReturned {
		deliveredAt, err := s.deliveredAt(ctx, order)
		if err != nil {
			return nil, err
		}
		if err = lifecycle.ValidateReturn(deliveredAt, now); err != nil {
			return nil, err
		}
	}

	previousStatus := order.Status

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order.Status = newStatus
	order.UpdatedAt = now
	if err = s.orders.Update(ctx, tx, order); err != nil {
		return nil, err
	}

	entry := model.OrderStatusHistory{
		ID:             uuid.New(),
		OrderID:        order.ID,
		Status:         newStatus,
		TransitionedAt: now,
	}
	if err = s.orders.AppendStatusHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit status update")
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishStatusChange(ctx, order.ID, previousStatus, newStatus)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(previousStatus)).
		Str("to", string(newStatus)).
		Msg("order status updated")

	return order, nil
}

// deliveredAt finds the DELIVERED timestamp in the order's history.
func (s *orderService) deliveredAt(ctx context.Context, order *model.Order) (time.Time, error) {
	history, err := s.orders.GetStatusHistory(ctx, order.ID)
	if err != nil {
		return time.Time{}, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == model.StatusDelivered {
			return history[i].TransitionedAt, nil
		}
	}
	// No history row means the delivery time is unknown; fall back to the
	// order's last update so returns are not rejected outright.
	return order.UpdatedAt, nil
}
