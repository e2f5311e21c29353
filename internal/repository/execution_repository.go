package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
)

// executionRepository implements ExecutionRepository using PostgreSQL.
// Results are stored as JSON under the caller's idempotency key; the
// primary key constraint makes double-apply under the same key impossible
// even across concurrent executes.
type executionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewExecutionRepository creates a new PostgreSQL-backed execution
// repository.
func NewExecutionRepository(pool *pgxpool.Pool, logger zerolog.Logger) ExecutionRepository {
	return &executionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "execution").Logger(),
	}
}

// GetByKey retrieves a previously stored execution result.
func (r *executionRepository) GetByKey(ctx context.Context, idempotencyKey string) (*model.ExecutionResult, error) {
	query := `
		SELECT result
		FROM change_executions
		WHERE idempotency_key = $1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query, idempotencyKey).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("idempotency_key", idempotencyKey).Msg("failed to query execution")
		return nil, fmt.Errorf("failed to query execution: %w", err)
	}

	var result model.ExecutionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		r.logger.Error().Err(err).Str("idempotency_key", idempotencyKey).Msg("failed to decode stored execution")
		return nil, fmt.Errorf("failed to decode stored execution: %w", err)
	}

	return &result, nil
}

// Create stores the result under the idempotency key within the provided
// transaction.
func (r *executionRepository) Create(ctx context.Context, tx pgx.Tx, idempotencyKey string, result *model.ExecutionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode execution result: %w", err)
	}

	query := `
		INSERT INTO change_executions (idempotency_key, change_id, order_id, result, executed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, query,
		idempotencyKey,
		result.ChangeID,
		result.Order.ID,
		payload,
		result.ExecutedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("idempotency_key", idempotencyKey).
			Str("change_id", result.ChangeID.String()).
			Msg("failed to store execution result")
		return fmt.Errorf("failed to store execution result: %w", err)
	}

	return nil
}
