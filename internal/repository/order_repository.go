package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
)

// orderRepository implements OrderRepository using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetByID retrieves an order by its ID along with its line items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	orderQuery := `
		SELECT id, status, artwork_id,
		       address_line1, address_line2, address_city, address_state,
		       address_postal_code, address_country,
		       requested_delivery_date, total_amount, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.Status,
		&order.ArtworkID,
		&order.ShippingAddress.Line1,
		&order.ShippingAddress.Line2,
		&order.ShippingAddress.City,
		&order.ShippingAddress.State,
		&order.ShippingAddress.PostalCode,
		&order.ShippingAddress.Country,
		&order.RequestedDeliveryDate,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, color, size, quantity, unit_price
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query line items")
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderLineItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.Inventory.ProductID,
			&item.Inventory.Color,
			&item.Inventory.Size,
			&item.Quantity,
			&item.UnitPrice,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan line item row")
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		order.LineItems = append(order.LineItems, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating line item rows")
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return &order, nil
}

// Create inserts a new order and its line items within the provided
// transaction.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	orderQuery := `
		INSERT INTO orders (
			id, status, artwork_id,
			address_line1, address_line2, address_city, address_state,
			address_postal_code, address_country,
			requested_delivery_date, total_amount, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, orderQuery,
		order.ID,
		order.Status,
		order.ArtworkID,
		order.ShippingAddress.Line1,
		order.ShippingAddress.Line2,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		order.RequestedDeliveryDate,
		order.TotalAmount,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if len(order.LineItems) == 0 {
		return nil
	}

	itemQuery := `
		INSERT INTO order_line_items (id, order_id, product_id, color, size, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range order.LineItems {
		batch.Queue(itemQuery,
			item.ID,
			item.OrderID,
			item.Inventory.ProductID,
			item.Inventory.Color,
			item.Inventory.Size,
			item.Quantity,
			item.UnitPrice,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(order.LineItems); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Msg("failed to create line item")
			return fmt.Errorf("failed to create line item: %w", err)
		}
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("line_items", len(order.LineItems)).
		Msg("order created")

	return nil
}

// Update writes the order's mutable columns within the provided
// transaction.
func (r *orderRepository) Update(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2,
		    artwork_id = $3,
		    address_line1 = $4,
		    address_line2 = $5,
		    address_city = $6,
		    address_state = $7,
		    address_postal_code = $8,
		    address_country = $9,
		    requested_delivery_date = $10,
		    total_amount = $11,
		    updated_at = $12
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		order.ID,
		order.Status,
		order.ArtworkID,
		order.ShippingAddress.Line1,
		order.ShippingAddress.Line2,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		order.RequestedDeliveryDate,
		order.TotalAmount,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update order %s: %w", order.ID, model.ErrOrderNotFound)
	}

	return nil
}

// UpdateLineItem writes a line item's inventory key and quantity within
// the provided transaction.
func (r *orderRepository) UpdateLineItem(ctx context.Context, tx pgx.Tx, item *model.OrderLineItem) error {
	query := `
		UPDATE order_line_items
		SET product_id = $2, color = $3, size = $4, quantity = $5, unit_price = $6
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		item.ID,
		item.Inventory.ProductID,
		item.Inventory.Color,
		item.Inventory.Size,
		item.Quantity,
		item.UnitPrice,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("line_item_id", item.ID.String()).Msg("failed to update line item")
		return fmt.Errorf("failed to update line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("line item %s not found", item.ID)
	}

	return nil
}

// AppendStatusHistory appends an audit row within the provided transaction.
func (r *orderRepository) AppendStatusHistory(ctx context.Context, tx pgx.Tx, entry model.OrderStatusHistory) error {
	query := `
		INSERT INTO order_status_history (id, order_id, status, transitioned_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := tx.Exec(ctx, query, entry.ID, entry.OrderID, entry.Status, entry.TransitionedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", entry.OrderID.String()).
			Str("status", string(entry.Status)).
			Msg("failed to append status history")
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return nil
}

// GetStatusHistory retrieves the transition history for an order.
func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	query := `
		SELECT id, order_id, status, transitioned_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY transitioned_at
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query status history")
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []model.OrderStatusHistory
	for rows.Next() {
		var entry model.OrderStatusHistory
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.TransitionedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan status history row")
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating status history rows")
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return history, nil
}
