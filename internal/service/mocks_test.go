package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/brandonvio/brightthread/internal/model"
)

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateLineItem(ctx context.Context, tx pgx.Tx, item *model.OrderLineItem) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

func (m *MockOrderRepository) AppendStatusHistory(ctx context.Context, tx pgx.Tx, entry model.OrderStatusHistory) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockOrderRepository) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderStatusHistory), args.Error(1)
}

// MockInventoryRepository is a mock implementation of
// repository.InventoryRepository.
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) GetByKey(ctx context.Context, key model.InventoryKey) (*model.InventoryRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) List(ctx context.Context) ([]model.InventoryRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) Reserve(ctx context.Context, tx pgx.Tx, key model.InventoryKey, qty int) error {
	args := m.Called(ctx, tx, key, qty)
	return args.Error(0)
}

func (m *MockInventoryRepository) Release(ctx context.Context, tx pgx.Tx, key model.InventoryKey, qty int) error {
	args := m.Called(ctx, tx, key, qty)
	return args.Error(0)
}

// MockExecutionRepository is a mock implementation of
// repository.ExecutionRepository.
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) GetByKey(ctx context.Context, idempotencyKey string) (*model.ExecutionResult, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExecutionResult), args.Error(1)
}

func (m *MockExecutionRepository) Create(ctx context.Context, tx pgx.Tx, idempotencyKey string, result *model.ExecutionResult) error {
	args := m.Called(ctx, tx, idempotencyKey, result)
	return args.Error(0)
}

// MockStatusPublisher is a mock implementation of StatusPublisher.
type MockStatusPublisher struct {
	mock.Mock
}

func (m *MockStatusPublisher) PublishStatusChange(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus) {
	m.Called(ctx, orderID, from, to)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
