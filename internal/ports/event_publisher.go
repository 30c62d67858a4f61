package ports

import (
	"context"
	"time"
)

// Routing keys published on the deliveries exchange.
const (
	EventDeliveryAccepted    = "delivery.accepted"
	EventDriverBatchAccepted = "driver.batch_accepted"
)

// DeliveryEvent is the payload announced after an assignment.
type DeliveryEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id,omitempty"`
	OrderIDs   []string  `json:"order_ids,omitempty"`
	DriverID   string    `json:"driver_id"`
	BatchID    string    `json:"batch_id,omitempty"`
	IsBatched  bool      `json:"is_batched"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Contract for announcing delivery events to the rest of the platform.
type EventPublisher interface {
	Publish(ctx context.Context, event DeliveryEvent) error
}
