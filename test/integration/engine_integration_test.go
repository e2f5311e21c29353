package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/repository"
	"github.com/brandonvio/brightthread/internal/service"
)

func setupEngine(t *testing.T) (*TestDB, service.OrderService, service.ChangeService, repository.InventoryRepository) {
	t.Helper()

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()

	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	inventoryRepo := repository.NewInventoryRepository(testDB.Pool, logger)
	executionRepo := repository.NewExecutionRepository(testDB.Pool, logger)

	orderService := service.NewOrderService(orderRepo, inventoryRepo, nil, logger)
	changeService := service.NewChangeService(orderRepo, inventoryRepo, executionRepo, nil, logger)

	return testDB, orderService, changeService, inventoryRepo
}

func seedAndCreateOrder(t *testing.T, testDB *TestDB, orders service.OrderService, key model.InventoryKey) *model.Order {
	t.Helper()

	ctx := context.Background()

	CleanupDB(t, testDB.Pool)
	SeedInventory(t, testDB.Pool, []model.InventoryRecord{
		{Key: key, AvailableQty: 500, ReservedQty: 0},
	})

	order, err := orders.Create(ctx, &model.OrderRequest{
		ShippingAddress: model.Address{
			Line1:      "400 Commerce Way",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "US",
		},
		RequestedDeliveryDate: time.Now().AddDate(0, 0, 60),
		Items: []model.OrderLineItemRequest{
			{Inventory: key, Quantity: 100, UnitPrice: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)
	return order
}

func TestEngine_EvaluateExecuteRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB, orderService, changeService, inventoryRepo := setupEngine(t)
	ctx := context.Background()
	key := model.InventoryKey{ProductID: "TEE-001", Color: "navy", Size: "L"}

	order := seedAndCreateOrder(t, testDB, orderService, key)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(2000)))

	// Creation reserved the full quantity.
	record, err := inventoryRepo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 400, record.AvailableQty)
	assert.Equal(t, 100, record.ReservedQty)

	// Evaluate a quantity increase while still in CREATED: free.
	newQty := 150
	req := &model.ChangeRequest{
		Type:        model.ChangeQuantity,
		LineItemID:  &order.LineItems[0].ID,
		NewQuantity: &newQty,
	}

	decision, err := changeService.Evaluate(ctx, order.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.Allowed, decision.ApprovalStatus)
	assert.True(t, decision.CostAdjustment.IsZero())

	// Execute and verify the ledger and the order both moved.
	result, err := changeService.Execute(ctx, order.ID, req, *decision, "roundtrip-1")
	require.NoError(t, err)
	assert.Equal(t, 150, result.Order.LineItems[0].Quantity)
	assert.True(t, result.Order.TotalAmount.Equal(decimal.NewFromInt(3000)))

	record, err = inventoryRepo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 350, record.AvailableQty)
	assert.Equal(t, 150, record.ReservedQty)

	// Re-executing under the same idempotency key returns the stored
	// result and touches nothing.
	replay, err := changeService.Execute(ctx, order.ID, req, *decision, "roundtrip-1")
	require.NoError(t, err)
	assert.Equal(t, result.ChangeID, replay.ChangeID)

	record, err = inventoryRepo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 150, record.ReservedQty, "replay must not reserve again")
}

func TestEngine_CancelReleasesInventory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB, orderService, changeService, inventoryRepo := setupEngine(t)
	ctx := context.Background()
	key := model.InventoryKey{ProductID: "TEE-002", Color: "black", Size: "M"}

	order := seedAndCreateOrder(t, testDB, orderService, key)

	req := &model.ChangeRequest{Type: model.ChangeCancel}

	decision, err := changeService.Evaluate(ctx, order.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, decision.ResultingStatus)
	// CREATED cancels refund in full.
	assert.True(t, decision.CostAdjustment.Equal(decimal.NewFromInt(-2000)))

	result, err := changeService.Execute(ctx, order.ID, req, *decision, "cancel-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, result.Order.Status)

	record, err := inventoryRepo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 500, record.AvailableQty)
	assert.Equal(t, 0, record.ReservedQty)

	// The cancellation is recorded in the audit trail.
	history, err := orderService.GetStatusHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusCreated, history[0].Status)
	assert.Equal(t, model.StatusCancelled, history[1].Status)

	// A cancelled order admits no further changes.
	decision, err = changeService.Evaluate(ctx, order.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.NotAllowed, decision.ApprovalStatus)
}

func TestEngine_StaleDecisionAfterStatusAdvance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB, orderService, changeService, _ := setupEngine(t)
	ctx := context.Background()
	key := model.InventoryKey{ProductID: "TEE-003", Color: "white", Size: "S"}

	order := seedAndCreateOrder(t, testDB, orderService, key)

	req := &model.ChangeRequest{Type: model.ChangeCancel}

	// Evaluate while the order is CREATED: full refund.
	decision, err := changeService.Evaluate(ctx, order.ID, req)
	require.NoError(t, err)
	assert.True(t, decision.CostAdjustment.Equal(decimal.NewFromInt(-2000)))

	// The order advances before the customer confirms.
	_, err = orderService.UpdateStatus(ctx, order.ID, model.StatusApproved)
	require.NoError(t, err)

	// The CREATED-era decision no longer matches: APPROVED cancels carry
	// a processing fee.
	_, err = changeService.Execute(ctx, order.ID, req, *decision, "stale-1")
	assert.ErrorIs(t, err, model.ErrStaleDecision)

	// A fresh evaluation goes through.
	fresh, err := changeService.Evaluate(ctx, order.ID, req)
	require.NoError(t, err)
	assert.True(t, fresh.CostAdjustment.Equal(decimal.NewFromInt(-1975)))

	result, err := changeService.Execute(ctx, order.ID, req, *fresh, "stale-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, result.Order.Status)
}

func TestEngine_CreateFailsWhenInventoryShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB, orderService, _, inventoryRepo := setupEngine(t)
	ctx := context.Background()
	key := model.InventoryKey{ProductID: "TEE-004", Color: "red", Size: "XL"}

	CleanupDB(t, testDB.Pool)
	SeedInventory(t, testDB.Pool, []model.InventoryRecord{
		{Key: key, AvailableQty: 50, ReservedQty: 0},
	})

	_, err := orderService.Create(ctx, &model.OrderRequest{
		ShippingAddress:       model.Address{Line1: "1 Main St", City: "Portland", State: "OR", PostalCode: "97201", Country: "US"},
		RequestedDeliveryDate: time.Now().AddDate(0, 0, 60),
		Items: []model.OrderLineItemRequest{
			{Inventory: key, Quantity: 100, UnitPrice: decimal.NewFromInt(20)},
		},
	})
	assert.ErrorIs(t, err, model.ErrInsufficientInventory)

	// The failed creation left the ledger untouched.
	record, err := inventoryRepo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 50, record.AvailableQty)
	assert.Equal(t, 0, record.ReservedQty)
}
