package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brandonvio/brightthread/internal/database"
	"github.com/brandonvio/brightthread/internal/model"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, runs the embedded
// migrations and returns a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// The real schema comes from the embedded goose migrations, same as in
	// production.
	if err := database.Migrate(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 20

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedInventory inserts inventory rows for testing.
func SeedInventory(t *testing.T, pool *pgxpool.Pool, records []model.InventoryRecord) {
	t.Helper()

	ctx := context.Background()

	for _, r := range records {
		_, err := pool.Exec(ctx,
			"INSERT INTO inventory (product_id, color, size, available_qty, reserved_qty) VALUES ($1, $2, $3, $4, $5)",
			r.Key.ProductID, r.Key.Color, r.Key.Size, r.AvailableQty, r.ReservedQty,
		)
		if err != nil {
			t.Fatalf("failed to seed inventory %s/%s/%s: %v", r.Key.ProductID, r.Key.Color, r.Key.Size, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"change_executions", "order_status_history", "order_line_items", "orders", "inventory"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
