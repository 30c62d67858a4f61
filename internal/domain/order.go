package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses the planner reads or writes.
const (
	OrderStatusReady    = "ready"
	OrderStatusPickedUp = "picked_up"
)

// Represents a ready-for-pickup order eligible for batching.
// Orders are created by the order service when they become ready and are
// read-only to the planner; they leave the availability pool once assigned.
// ItemCount and TotalAmount are informational and never drive batching.
type DeliverableOrder struct {
	ID               string          `json:"id"`
	RestaurantID     string          `json:"restaurant_id"`
	RestaurantName   string          `json:"restaurant_name"`
	CreatedAt        time.Time       `json:"created_at"`
	DeliveryLocation *Coordinates    `json:"delivery_location,omitempty"`
	DeliveryAddress  string          `json:"delivery_address,omitempty"`
	ItemCount        int             `json:"item_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

// Location returns the delivery location, falling back to DefaultCoordinates.
func (o *DeliverableOrder) Location() Coordinates {
	return o.DeliveryLocation.OrDefault()
}
