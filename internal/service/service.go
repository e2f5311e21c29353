package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/brandonvio/brightthread/internal/model"
)

// OrderService defines operations for order lifecycle management.
type OrderService interface {
	// Create creates a new order, reserving inventory for every line item.
	Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order with its line items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetStatusHistory retrieves the order's transition audit trail.
	GetStatusHistory(ctx context.Context, id uuid.UUID) ([]model.OrderStatusHistory, error)

	// UpdateStatus moves the order along the lifecycle graph. Cancellation
	// is not accepted here; it goes through the change engine so inventory
	// is released in the same unit.
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus model.OrderStatus) (*model.Order, error)
}

// ChangeService is the two-phase change evaluation and execution engine.
// Evaluate is read-only; Execute applies a previously evaluated change as
// one atomic unit.
type ChangeService interface {
	// Evaluate decides whether the proposed change is allowed, what it
	// costs and how much it delays delivery. Nothing is mutated.
	Evaluate(ctx context.Context, orderID uuid.UUID, req *model.ChangeRequest) (*model.PolicyDecision, error)

	// Execute applies the change. The supplied decision must still match a
	// fresh evaluation, and the idempotency key makes retries safe: a key
	// that was already used returns the original result untouched.
	Execute(ctx context.Context, orderID uuid.UUID, req *model.ChangeRequest, decision model.PolicyDecision, idempotencyKey string) (*model.ExecutionResult, error)
}

// InventoryService defines read operations over the inventory ledger.
// Mutation happens only through reservations made by the order and change
// services.
type InventoryService interface {
	// List retrieves all inventory records.
	List(ctx context.Context) ([]model.InventoryRecord, error)

	// GetByKey retrieves the record for a (product, color, size) triple.
	GetByKey(ctx context.Context, key model.InventoryKey) (*model.InventoryRecord, error)
}

// StatusPublisher receives order status transitions after they commit.
// Implementations must not block request handling.
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus)
}
