package model

import "time"

// InventoryKey identifies an inventory record by its (product, color, size)
// triple.
type InventoryKey struct {
	ProductID string `json:"productId" db:"product_id"`
	Color     string `json:"color" db:"color"`
	Size      string `json:"size" db:"size"`
}

// InventoryRecord tracks available versus reserved stock for one key.
// Reservation moves quantity from available to reserved; release reverses
// it. The pair is only ever mutated through those two operations.
type InventoryRecord struct {
	Key          InventoryKey `json:"key"`
	AvailableQty int          `json:"availableQty" db:"available_qty"`
	ReservedQty  int          `json:"reservedQty" db:"reserved_qty"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}
