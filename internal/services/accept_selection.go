package services

import (
	"context"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptySelection    = errors.New("selection is empty")
	ErrSelectionTooLarge = errors.New("selection exceeds driver capacity")
)

// RefreshFunc is called after a successful submission so the caller can
// reload the available-orders view.
type RefreshFunc func(ctx context.Context, driverID string, assigned []string) error

// InvalidateOnAccept drops src's pool snapshot after a submission, so the
// next plan no longer offers the orders just taken.
func InvalidateOnAccept(src ports.InvalidatingOrderSource) RefreshFunc {
	return func(ctx context.Context, driverID string, _ []string) error {
		return src.Invalidate(ctx, driverID)
	}
}

// Acceptor submits a driver's selection as one assignment action.
//
// Assignments are applied one order at a time with no rollback: an order
// that fails (typically because another driver claimed it first) is reported
// and skipped, and orders already assigned stay assigned.
type Acceptor struct {
	Assigner ports.OrderAssigner
	Drivers  ports.DriverStatusUpdater
	Events   ports.EventPublisher
	Refresh  RefreshFunc

	NewBatchID func() string
	Now        func() time.Time
}

func NewAcceptor(assigner ports.OrderAssigner, drivers ports.DriverStatusUpdater, events ports.EventPublisher) *Acceptor {
	return &Acceptor{
		Assigner:   assigner,
		Drivers:    drivers,
		Events:     events,
		NewBatchID: newBatchID,
		Now:        time.Now,
	}
}

func newBatchID() string {
	return "batch_" + uuid.NewString()
}

// AcceptSelection assigns every selected order to driver.
//
// One batch id is generated per multi-order submission and shared by all of
// its orders. The driver is marked busy once, with the number of orders that
// were actually assigned. The returned result is non-nil whenever assignment
// was attempted, even if a later step failed.
func (a *Acceptor) AcceptSelection(
	ctx context.Context,
	driver *domain.Driver,
	selectedOrderIDs []string,
) (_ *domain.AssignmentResult, err error) {
	defer obs.Time(ctx, "acceptor.AcceptSelection")(&err)

	if driver == nil || driver.ID == "" {
		return nil, errors.New("accept selection: driver must be non-nil with an id")
	}

	sel := domain.NewDriverSelection(len(selectedOrderIDs)+1, selectedOrderIDs...)
	ids := sel.IDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("accept selection: %w", ErrEmptySelection)
	}
	if len(ids) > driver.Capacity() {
		return nil, fmt.Errorf(
			"accept selection: %w (selected=%d capacity=%d)",
			ErrSelectionTooLarge, len(ids), driver.Capacity(),
		)
	}

	isBatched := len(ids) > 1
	batchID := ""
	if isBatched {
		batchID = a.batchID()
	}

	update := ports.AssignmentUpdate{
		Status:    domain.OrderStatusPickedUp,
		IsBatched: isBatched,
		BatchID:   batchID,
	}

	result := &domain.AssignmentResult{
		DriverID:  driver.ID,
		BatchID:   batchID,
		IsBatched: isBatched,
		Assigned:  make([]string, 0, len(ids)),
		Failed:    []domain.FailedAssignment{},
	}

	logger := obs.Logger(ctx)

	for _, orderID := range ids {
		if err := a.Assigner.AssignOrder(ctx, orderID, driver.ID, update); err != nil {
			conflict := errors.Is(err, ports.ErrAssignmentConflict)
			if conflict {
				obs.CountAssignment(obs.OutcomeConflict)
			} else {
				obs.CountAssignment(obs.OutcomeError)
			}

			logger.Warn().
				Str("driver_id", driver.ID).
				Str("order_id", orderID).
				Bool("conflict", conflict).
				Err(err).
				Msg("order assignment failed")

			result.Failed = append(result.Failed, domain.FailedAssignment{
				OrderID:  orderID,
				Conflict: conflict,
				Reason:   err.Error(),
			})
			continue
		}

		obs.CountAssignment(obs.OutcomeAssigned)
		result.Assigned = append(result.Assigned, orderID)
	}

	result.Earnings = ComputeEarnings(len(result.Assigned))

	if len(result.Assigned) == 0 {
		return result, nil
	}

	status := ports.DriverStatus{IsBusy: true, CurrentBatchCount: len(result.Assigned)}
	if err := a.Drivers.SetDriverBusy(ctx, driver.ID, status); err != nil {
		return result, fmt.Errorf("accept selection: set driver %q busy: %w", driver.ID, err)
	}

	a.publish(ctx, driver.ID, result)

	if a.Refresh != nil {
		if err := a.Refresh(ctx, driver.ID, result.Assigned); err != nil {
			logger.Warn().Str("driver_id", driver.ID).Err(err).Msg("refresh after accept failed")
		}
	}

	return result, nil
}

func (a *Acceptor) batchID() string {
	if a.NewBatchID != nil {
		return a.NewBatchID()
	}
	return newBatchID()
}

func (a *Acceptor) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// publish announces the accepted orders. Event delivery is best effort;
// failures are logged and never undo an assignment.
func (a *Acceptor) publish(ctx context.Context, driverID string, result *domain.AssignmentResult) {
	if a.Events == nil {
		return
	}

	logger := obs.Logger(ctx)
	at := a.now().UTC()

	for _, orderID := range result.Assigned {
		ev := ports.DeliveryEvent{
			Type:       ports.EventDeliveryAccepted,
			OrderID:    orderID,
			DriverID:   driverID,
			BatchID:    result.BatchID,
			IsBatched:  result.IsBatched,
			OccurredAt: at,
		}
		if err := a.Events.Publish(ctx, ev); err != nil {
			logger.Warn().Str("order_id", orderID).Err(err).Msg("publish delivery event failed")
		}
	}

	ev := ports.DeliveryEvent{
		Type:       ports.EventDriverBatchAccepted,
		OrderIDs:   result.Assigned,
		DriverID:   driverID,
		BatchID:    result.BatchID,
		IsBatched:  result.IsBatched,
		OccurredAt: at,
	}
	if err := a.Events.Publish(ctx, ev); err != nil {
		logger.Warn().Str("driver_id", driverID).Err(err).Msg("publish batch event failed")
	}
}
