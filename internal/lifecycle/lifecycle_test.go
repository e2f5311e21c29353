package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonvio/brightthread/internal/model"
)

func TestCanTransition_ForwardEdges(t *testing.T) {
	edges := []struct {
		from, to model.OrderStatus
	}{
		{model.StatusCreated, model.StatusApproved},
		{model.StatusApproved, model.StatusInProduction},
		{model.StatusInProduction, model.StatusReadyToShip},
		{model.StatusReadyToShip, model.StatusShipped},
		{model.StatusShipped, model.StatusDelivered},
		{model.StatusDelivered, model.StatusReturned},
	}

	for _, e := range edges {
		assert.True(t, CanTransition(e.from, e.to), "%s -> %s", e.from, e.to)
	}
}

func TestCanTransition_CancellationEdges(t *testing.T) {
	assert.True(t, CanTransition(model.StatusCreated, model.StatusCancelled))
	assert.True(t, CanTransition(model.StatusApproved, model.StatusCancelled))
	assert.True(t, CanTransition(model.StatusInProduction, model.StatusCancelled))

	assert.False(t, CanTransition(model.StatusReadyToShip, model.StatusCancelled))
	assert.False(t, CanTransition(model.StatusShipped, model.StatusCancelled))
	assert.False(t, CanTransition(model.StatusDelivered, model.StatusCancelled))
}

func TestCanTransition_NoBackwardOrSkippingEdges(t *testing.T) {
	assert.False(t, CanTransition(model.StatusApproved, model.StatusCreated))
	assert.False(t, CanTransition(model.StatusShipped, model.StatusReadyToShip))
	assert.False(t, CanTransition(model.StatusCreated, model.StatusInProduction))
	assert.False(t, CanTransition(model.StatusApproved, model.StatusShipped))
	assert.False(t, CanTransition(model.StatusCancelled, model.StatusCreated))
	assert.False(t, CanTransition(model.StatusReturned, model.StatusDelivered))
}

func TestValidate_InvalidEdgeFailsFast(t *testing.T) {
	err := Validate(model.StatusShipped, model.StatusApproved)

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.StatusDelivered))
	assert.True(t, IsTerminal(model.StatusReturned))
	assert.True(t, IsTerminal(model.StatusCancelled))

	assert.False(t, IsTerminal(model.StatusCreated))
	assert.False(t, IsTerminal(model.StatusShipped))
}

func TestValidateReturn_Window(t *testing.T) {
	deliveredAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, ValidateReturn(deliveredAt, deliveredAt.AddDate(0, 0, 29)))
	require.NoError(t, ValidateReturn(deliveredAt, deliveredAt.AddDate(0, 0, 30)))

	err := ValidateReturn(deliveredAt, deliveredAt.AddDate(0, 0, 31))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
}

func TestMinLeadTime(t *testing.T) {
	days, ok := MinLeadTime(model.StatusCreated)
	require.True(t, ok)
	assert.Equal(t, 14, days)

	days, ok = MinLeadTime(model.StatusApproved)
	require.True(t, ok)
	assert.Equal(t, 12, days)

	days, ok = MinLeadTime(model.StatusInProduction)
	require.True(t, ok)
	assert.Equal(t, 7, days)

	_, ok = MinLeadTime(model.StatusShipped)
	assert.False(t, ok)
}

func TestCheckLeadTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("far-out delivery passes with delay", func(t *testing.T) {
		delivery := now.AddDate(0, 0, 40)

		projected, err := CheckLeadTime(model.StatusApproved, delivery, 2, now)

		require.NoError(t, err)
		assert.Equal(t, delivery.AddDate(0, 0, 2), projected)
	})

	t.Run("tight delivery violates after delay", func(t *testing.T) {
		delivery := now.AddDate(0, 0, 8)

		earliest, err := CheckLeadTime(model.StatusCreated, delivery, 2, now)

		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrLeadTimeViolation))
		assert.Equal(t, now.AddDate(0, 0, 14), earliest)
	})

	t.Run("no lead time enforced for later states", func(t *testing.T) {
		delivery := now.AddDate(0, 0, 1)

		_, err := CheckLeadTime(model.StatusReadyToShip, delivery, 2, now)

		require.NoError(t, err)
	})
}
