package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order lifecycle states. DELIVERED, RETURNED and CANCELLED are terminal
// (DELIVERED only admits the 30-day return edge).
const (
	StatusCreated      OrderStatus = "CREATED"
	StatusApproved     OrderStatus = "APPROVED"
	StatusInProduction OrderStatus = "IN_PRODUCTION"
	StatusReadyToShip  OrderStatus = "READY_TO_SHIP"
	StatusShipped      OrderStatus = "SHIPPED"
	StatusDelivered    OrderStatus = "DELIVERED"
	StatusReturned     OrderStatus = "RETURNED"
	StatusCancelled    OrderStatus = "CANCELLED"
)

// AllStatuses lists every defined lifecycle state.
var AllStatuses = []OrderStatus{
	StatusCreated,
	StatusApproved,
	StatusInProduction,
	StatusReadyToShip,
	StatusShipped,
	StatusDelivered,
	StatusReturned,
	StatusCancelled,
}

// Address is a shipping destination.
type Address struct {
	Line1      string `json:"line1" db:"address_line1"`
	Line2      string `json:"line2,omitempty" db:"address_line2"`
	City       string `json:"city" db:"address_city"`
	State      string `json:"state" db:"address_state"`
	PostalCode string `json:"postalCode" db:"address_postal_code"`
	Country    string `json:"country" db:"address_country"`
}

// Order represents a customer order with its line items.
type Order struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	Status                OrderStatus     `json:"status" db:"status"`
	LineItems             []OrderLineItem `json:"lineItems"`
	ShippingAddress       Address         `json:"shippingAddress"`
	ArtworkID             *uuid.UUID      `json:"artworkId,omitempty" db:"artwork_id"`
	RequestedDeliveryDate time.Time       `json:"requestedDeliveryDate" db:"requested_delivery_date"`
	TotalAmount           decimal.Decimal `json:"totalAmount" db:"total_amount"`
	CreatedAt             time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time       `json:"updatedAt" db:"updated_at"`
}

// LineItem returns the line item with the given id, or nil.
func (o *Order) LineItem(id uuid.UUID) *OrderLineItem {
	for i := range o.LineItems {
		if o.LineItems[i].ID == id {
			return &o.LineItems[i]
		}
	}
	return nil
}

// LineItemTotal returns the sum of quantity x unit price across line items.
func (o *Order) LineItemTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.LineItems {
		total = total.Add(item.Value())
	}
	return total
}

// OrderLineItem is one line of an order. UnitPrice is fixed at order time
// and never recomputed from the catalog.
type OrderLineItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	Inventory InventoryKey    `json:"inventory"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// Value returns quantity x unit price for this line.
func (li OrderLineItem) Value() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// OrderStatusHistory is an append-only audit record of a status transition.
type OrderStatusHistory struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	OrderID        uuid.UUID   `json:"orderId" db:"order_id"`
	Status         OrderStatus `json:"status" db:"status"`
	TransitionedAt time.Time   `json:"transitionedAt" db:"transitioned_at"`
}

// OrderRequest is the request payload for creating an order.
type OrderRequest struct {
	ShippingAddress       Address                `json:"shippingAddress"`
	ArtworkID             *uuid.UUID             `json:"artworkId,omitempty"`
	RequestedDeliveryDate time.Time              `json:"requestedDeliveryDate"`
	Items                 []OrderLineItemRequest `json:"items"`
}

// OrderLineItemRequest is a single item in an order request. The unit
// price is captured here and fixed for the life of the order.
type OrderLineItemRequest struct {
	Inventory InventoryKey    `json:"inventory"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}
