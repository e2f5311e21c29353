package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
)

// inventoryRepository implements InventoryRepository using PostgreSQL.
// Reserve and Release are single conditional UPDATE statements, so
// concurrent calls against the same (product, color, size) key serialize
// on the row and can never both succeed past the available quantity.
type inventoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewInventoryRepository creates a new PostgreSQL-backed inventory
// repository.
func NewInventoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) InventoryRepository {
	return &inventoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "inventory").Logger(),
	}
}

// GetByKey retrieves the record for a (product, color, size) triple.
func (r *inventoryRepository) GetByKey(ctx context.Context, key model.InventoryKey) (*model.InventoryRecord, error) {
	query := `
		SELECT product_id, color, size, available_qty, reserved_qty, updated_at
		FROM inventory
		WHERE product_id = $1 AND color = $2 AND size = $3
	`

	var record model.InventoryRecord
	err := r.pool.QueryRow(ctx, query, key.ProductID, key.Color, key.Size).Scan(
		&record.Key.ProductID,
		&record.Key.Color,
		&record.Key.Size,
		&record.AvailableQty,
		&record.ReservedQty,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("product_id", key.ProductID).
			Str("color", key.Color).
			Str("size", key.Size).
			Msg("failed to query inventory")
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}

	return &record, nil
}

// List retrieves all inventory records.
func (r *inventoryRepository) List(ctx context.Context) ([]model.InventoryRecord, error) {
	query := `
		SELECT product_id, color, size, available_qty, reserved_qty, updated_at
		FROM inventory
		ORDER BY product_id, color, size
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query inventory list")
		return nil, fmt.Errorf("failed to query inventory list: %w", err)
	}
	defer rows.Close()

	var records []model.InventoryRecord
	for rows.Next() {
		var record model.InventoryRecord
		err := rows.Scan(
			&record.Key.ProductID,
			&record.Key.Color,
			&record.Key.Size,
			&record.AvailableQty,
			&record.ReservedQty,
			&record.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan inventory row")
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating inventory rows")
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return records, nil
}

// Reserve atomically moves qty from available to reserved. The guard in
// the WHERE clause is the linearization point: of two concurrent reserves
// against the same key, at most one can satisfy available_qty >= qty for
// the last unit.
func (r *inventoryRepository) Reserve(ctx context.Context, tx pgx.Tx, key model.InventoryKey, qty int) error {
	query := `
		UPDATE inventory
		SET available_qty = available_qty - $4,
		    reserved_qty = reserved_qty + $4,
		    updated_at = now()
		WHERE product_id = $1 AND color = $2 AND size = $3
		  AND available_qty >= $4
	`

	tag, err := tx.Exec(ctx, query, key.ProductID, key.Color, key.Size, qty)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", key.ProductID).
			Int("qty", qty).
			Msg("failed to reserve inventory")
		return fmt.Errorf("failed to reserve inventory: %w", err)
	}

	if tag.RowsAffected() == 0 {
		record, getErr := r.GetByKey(ctx, key)
		if getErr != nil {
			return getErr
		}
		if record == nil {
			return fmt.Errorf("%w: %s/%s/%s", model.ErrInventoryNotFound, key.ProductID, key.Color, key.Size)
		}
		r.logger.Warn().
			Str("product_id", key.ProductID).
			Str("color", key.Color).
			Str("size", key.Size).
			Int("requested", qty).
			Int("available", record.AvailableQty).
			Msg("insufficient inventory for reservation")
		return fmt.Errorf("%w: requested %d, available %d", model.ErrInsufficientInventory, qty, record.AvailableQty)
	}

	return nil
}

// Release atomically moves qty from reserved back to available. Releasing
// more than is reserved signals a caller bug and fails fast.
func (r *inventoryRepository) Release(ctx context.Context, tx pgx.Tx, key model.InventoryKey, qty int) error {
	query := `
		UPDATE inventory
		SET available_qty = available_qty + $4,
		    reserved_qty = reserved_qty - $4,
		    updated_at = now()
		WHERE product_id = $1 AND color = $2 AND size = $3
		  AND reserved_qty >= $4
	`

	tag, err := tx.Exec(ctx, query, key.ProductID, key.Color, key.Size, qty)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", key.ProductID).
			Int("qty", qty).
			Msg("failed to release inventory")
		return fmt.Errorf("failed to release inventory: %w", err)
	}

	if tag.RowsAffected() == 0 {
		record, getErr := r.GetByKey(ctx, key)
		if getErr != nil {
			return getErr
		}
		if record == nil {
			return fmt.Errorf("%w: %s/%s/%s", model.ErrInventoryNotFound, key.ProductID, key.Color, key.Size)
		}
		return fmt.Errorf("%w: releasing %d with %d reserved", model.ErrReservationUnderflow, qty, record.ReservedQty)
	}

	return nil
}
