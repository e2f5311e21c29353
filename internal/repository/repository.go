package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brandonvio/brightthread/internal/model"
)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetByID retrieves an order with its line items. Returns (nil, nil)
	// when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// Create inserts an order and its line items within the transaction.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// Update writes the order's mutable columns (status, address, artwork,
	// delivery date, total) within the transaction.
	Update(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// UpdateLineItem writes a line item's inventory key and quantity
	// within the transaction.
	UpdateLineItem(ctx context.Context, tx pgx.Tx, item *model.OrderLineItem) error

	// AppendStatusHistory appends an audit row for a status transition
	// within the transaction. History rows are never updated or deleted.
	AppendStatusHistory(ctx context.Context, tx pgx.Tx, entry model.OrderStatusHistory) error

	// GetStatusHistory retrieves the transition history for an order,
	// oldest first.
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
}

// InventoryRepository defines the interface for the inventory ledger.
// Reserve and Release are the only mutations; each is a single atomic
// conditional update so concurrent calls against the same key serialize in
// the database.
type InventoryRepository interface {
	// GetByKey retrieves the record for a (product, color, size) triple.
	// Returns (nil, nil) when no record exists.
	GetByKey(ctx context.Context, key model.InventoryKey) (*model.InventoryRecord, error)

	// List retrieves all inventory records.
	List(ctx context.Context) ([]model.InventoryRecord, error)

	// Reserve moves qty from available to reserved. Fails with
	// ErrInsufficientInventory when available_qty < qty.
	Reserve(ctx context.Context, tx pgx.Tx, key model.InventoryKey, qty int) error

	// Release moves qty from reserved back to available. Fails with
	// ErrReservationUnderflow when reserved_qty < qty; that signals a
	// caller bug, not a recoverable condition.
	Release(ctx context.Context, tx pgx.Tx, key model.InventoryKey, qty int) error
}

// ExecutionRepository stores executed change results keyed by the caller's
// idempotency key, so a retried execute returns the original result
// instead of re-applying the change.
type ExecutionRepository interface {
	// GetByKey retrieves a previously stored result. Returns (nil, nil)
	// when the key has not been used.
	GetByKey(ctx context.Context, idempotencyKey string) (*model.ExecutionResult, error)

	// Create stores the result under the idempotency key within the
	// transaction that applied the change.
	Create(ctx context.Context, tx pgx.Tx, idempotencyKey string, result *model.ExecutionResult) error
}
