package ports

import (
	"context"
	"driver-batching-service/internal/domain"
)

// Port: a boundary for retrieving the availability pool.
type OrderSource interface {
	// Return orders with status "ready" and no assigned driver that the
	// driver may see right now.
	ListAvailableOrders(ctx context.Context, driverID string) ([]*domain.DeliverableOrder, error)
}

// Optional extension of OrderSource for sources that hold a snapshot.
type InvalidatingOrderSource interface {
	OrderSource
	// Drop any cached snapshot so the next read hits the backing store.
	Invalidate(ctx context.Context, driverID string) error
}

// Port: driver lookup for capacity configuration.
type DriverRepository interface {
	GetDriver(ctx context.Context, driverID string) (*domain.Driver, error)
}
