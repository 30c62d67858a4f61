package ports

import (
	"context"
	"errors"
)

var (
	// ErrAssignmentConflict means the order was claimed by another driver
	// (or left the ready state) between fetch and accept.
	ErrAssignmentConflict = errors.New("order already assigned")
	ErrOrderNotFound      = errors.New("order not found")
	ErrDriverNotFound     = errors.New("driver not found")
)

// Fields written to an order when a driver accepts it.
type AssignmentUpdate struct {
	Status    string
	IsBatched bool
	BatchID   string
}

// Contract for the conditional "assign driver to order" write.
type OrderAssigner interface {
	// Assign succeeds only while the order is still ready and unassigned;
	// otherwise it returns ErrAssignmentConflict.
	AssignOrder(ctx context.Context, orderID string, driverID string, update AssignmentUpdate) error
}

// Driver capacity state after an accepted selection.
type DriverStatus struct {
	IsBusy            bool
	CurrentBatchCount int
}

type DriverStatusUpdater interface {
	SetDriverBusy(ctx context.Context, driverID string, status DriverStatus) error
}
