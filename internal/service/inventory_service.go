package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/brandonvio/brightthread/internal/model"
	"github.com/brandonvio/brightthread/internal/repository"
)

// inventoryService implements InventoryService.
type inventoryService struct {
	inventory repository.InventoryRepository
	logger    zerolog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(inventory repository.InventoryRepository, logger zerolog.Logger) InventoryService {
	return &inventoryService{
		inventory: inventory,
		logger:    logger.With().Str("service", "inventory").Logger(),
	}
}

// List retrieves all inventory records.
func (s *inventoryService) List(ctx context.Context) ([]model.InventoryRecord, error) {
	return s.inventory.List(ctx)
}

// GetByKey retrieves the record for a (product, color, size) triple.
func (s *inventoryService) GetByKey(ctx context.Context, key model.InventoryKey) (*model.InventoryRecord, error) {
	record, err := s.inventory.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s/%s/%s", model.ErrInventoryNotFound, key.ProductID, key.Color, key.Size)
	}
	return record, nil
}
