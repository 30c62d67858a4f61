package services

import (
	"context"
	"driver-batching-service/internal/adapters/memory"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/ports"
	"errors"
	"slices"
	"testing"
	"time"
)

type assignCall struct {
	orderID  string
	driverID string
	update   ports.AssignmentUpdate
}

type recordingAssigner struct {
	calls []assignCall
	fail  map[string]error
}

func (r *recordingAssigner) AssignOrder(_ context.Context, orderID, driverID string, update ports.AssignmentUpdate) error {
	r.calls = append(r.calls, assignCall{orderID: orderID, driverID: driverID, update: update})
	if err, ok := r.fail[orderID]; ok {
		return err
	}
	return nil
}

type recordingDrivers struct {
	calls []ports.DriverStatus
	err   error
}

func (r *recordingDrivers) SetDriverBusy(_ context.Context, _ string, status ports.DriverStatus) error {
	r.calls = append(r.calls, status)
	return r.err
}

type recordingEvents struct {
	events []ports.DeliveryEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, ev ports.DeliveryEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func newTestAcceptor(assigner ports.OrderAssigner, drivers ports.DriverStatusUpdater, events ports.EventPublisher) *Acceptor {
	a := NewAcceptor(assigner, drivers, events)
	a.NewBatchID = func() string { return "batch_test" }
	a.Now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestAcceptSelectionAcrossBatchesSharesBatchID(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	plan := BuildBatchPlan("d1", []*domain.DeliverableOrder{
		order("o1", "r1", 12.9716, 77.5946, t0),
		order("o2", "r2", 12.9716, 77.5946, t0),
	}, DefaultGroupOptions())
	if len(plan.Batches) != 2 {
		t.Fatalf("expected the two orders in different batches, got %d batches", len(plan.Batches))
	}

	sel := domain.NewDriverSelection(3).
		Toggle(plan.Batches[0].Batch.Orders[0].ID).
		Toggle(plan.Batches[1].Batch.Orders[0].ID)

	assigner := &recordingAssigner{}
	drivers := &recordingDrivers{}
	acceptor := NewAcceptor(assigner, drivers, nil)

	result, err := acceptor.AcceptSelection(context.Background(), domain.NewDriver("d1", 3), sel.IDs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assigner.calls) != 2 {
		t.Fatalf("assign calls = %d, want 2", len(assigner.calls))
	}
	batchID := assigner.calls[0].update.BatchID
	if batchID == "" {
		t.Fatal("expected a generated batch id")
	}
	for _, c := range assigner.calls {
		if c.update.BatchID != batchID {
			t.Fatalf("batch ids differ: %q vs %q", c.update.BatchID, batchID)
		}
		if !c.update.IsBatched {
			t.Fatalf("order %s: expected is_batched=true", c.orderID)
		}
		if c.update.Status != domain.OrderStatusPickedUp {
			t.Fatalf("order %s: status = %q, want picked_up", c.orderID, c.update.Status)
		}
		if c.driverID != "d1" {
			t.Fatalf("order %s: driver = %q, want d1", c.orderID, c.driverID)
		}
	}

	if len(drivers.calls) != 1 {
		t.Fatalf("set driver busy calls = %d, want 1", len(drivers.calls))
	}
	if got := drivers.calls[0]; !got.IsBusy || got.CurrentBatchCount != 2 {
		t.Fatalf("driver status = %+v, want busy with 2", got)
	}

	if result.BatchID != batchID || len(result.Assigned) != 2 || len(result.Failed) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if result.Earnings.Total != 120 {
		t.Fatalf("earnings total = %d, want 120", result.Earnings.Total)
	}
}

func TestAcceptSelectionSingleOrderIsNotBatched(t *testing.T) {
	assigner := &recordingAssigner{}
	drivers := &recordingDrivers{}

	result, err := newTestAcceptor(assigner, drivers, nil).
		AcceptSelection(context.Background(), domain.NewDriver("d1", 3), []string{"o1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assigner.calls) != 1 {
		t.Fatalf("assign calls = %d, want 1", len(assigner.calls))
	}
	if u := assigner.calls[0].update; u.IsBatched || u.BatchID != "" {
		t.Fatalf("update = %+v, want unbatched without batch id", u)
	}
	if result.IsBatched || result.BatchID != "" {
		t.Fatalf("result = %+v, want unbatched", result)
	}
	if drivers.calls[0].CurrentBatchCount != 1 {
		t.Fatalf("current batch count = %d, want 1", drivers.calls[0].CurrentBatchCount)
	}
}

func TestAcceptSelectionConflictContinues(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	store := memory.NewOrderStore()
	store.AddReady(
		order("o1", "r1", 12.9716, 77.5946, t0),
		order("o2", "r1", 12.9716, 77.5946, t0),
		order("o3", "r1", 12.9716, 77.5946, t0),
	)

	// another driver claims o2 between fetch and accept
	if err := store.AssignOrder(ctx, "o2", "other", ports.AssignmentUpdate{Status: domain.OrderStatusPickedUp}); err != nil {
		t.Fatalf("pre-assign: %v", err)
	}

	var refreshed []string
	events := &recordingEvents{}
	acceptor := newTestAcceptor(store, store, events)
	acceptor.Refresh = func(_ context.Context, driverID string, assigned []string) error {
		refreshed = assigned
		return nil
	}

	result, err := acceptor.AcceptSelection(ctx, domain.NewDriver("d1", 3), []string{"o1", "o2", "o3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(result.Assigned, []string{"o1", "o3"}) {
		t.Fatalf("assigned = %v, want [o1 o3]", result.Assigned)
	}
	if len(result.Failed) != 1 || result.Failed[0].OrderID != "o2" || !result.Failed[0].Conflict {
		t.Fatalf("failed = %+v, want o2 conflict", result.Failed)
	}

	// the selection had three orders, so the survivors stay batched together
	for _, id := range []string{"o1", "o3"} {
		driverID, update, ok := store.Assignment(id)
		if !ok || driverID != "d1" || !update.IsBatched || update.BatchID != "batch_test" {
			t.Fatalf("order %s assignment = %q %+v %v", id, driverID, update, ok)
		}
	}
	if driverID, _, _ := store.Assignment("o2"); driverID != "other" {
		t.Fatalf("o2 holder = %q, want other", driverID)
	}

	status, ok := store.DriverStatus("d1")
	if !ok || !status.IsBusy || status.CurrentBatchCount != 2 {
		t.Fatalf("driver status = %+v %v, want busy with 2", status, ok)
	}

	if !slices.Equal(refreshed, []string{"o1", "o3"}) {
		t.Fatalf("refresh got %v, want [o1 o3]", refreshed)
	}

	if len(events.events) != 3 {
		t.Fatalf("events = %d, want 2 delivery.accepted + 1 batch event", len(events.events))
	}
	if last := events.events[2]; last.Type != ports.EventDriverBatchAccepted || len(last.OrderIDs) != 2 {
		t.Fatalf("last event = %+v", last)
	}
}

func TestAcceptSelectionAllConflicted(t *testing.T) {
	assigner := &recordingAssigner{fail: map[string]error{
		"o1": ports.ErrAssignmentConflict,
		"o2": ports.ErrAssignmentConflict,
	}}
	drivers := &recordingDrivers{}
	refreshCalled := false

	acceptor := newTestAcceptor(assigner, drivers, nil)
	acceptor.Refresh = func(context.Context, string, []string) error {
		refreshCalled = true
		return nil
	}

	result, err := acceptor.AcceptSelection(context.Background(), domain.NewDriver("d1", 3), []string{"o1", "o2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AllConflicted() {
		t.Fatalf("expected all conflicted, got %+v", result)
	}
	if len(drivers.calls) != 0 {
		t.Fatal("driver must not be marked busy when nothing was assigned")
	}
	if refreshCalled {
		t.Fatal("refresh must not run when nothing was assigned")
	}
	if result.Earnings.Total != 0 {
		t.Fatalf("earnings = %+v, want zero", result.Earnings)
	}
}

func TestAcceptSelectionValidation(t *testing.T) {
	acceptor := newTestAcceptor(&recordingAssigner{}, &recordingDrivers{}, nil)
	ctx := context.Background()

	if _, err := acceptor.AcceptSelection(ctx, domain.NewDriver("d1", 3), nil); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("empty: err = %v, want ErrEmptySelection", err)
	}

	_, err := acceptor.AcceptSelection(ctx, domain.NewDriver("d1", 2), []string{"a", "b", "c"})
	if !errors.Is(err, ErrSelectionTooLarge) {
		t.Fatalf("too large: err = %v, want ErrSelectionTooLarge", err)
	}

	if _, err := acceptor.AcceptSelection(ctx, nil, []string{"a"}); err == nil {
		t.Fatal("nil driver: expected error")
	}
}

func TestAcceptSelectionDeduplicates(t *testing.T) {
	assigner := &recordingAssigner{}
	acceptor := newTestAcceptor(assigner, &recordingDrivers{}, nil)

	result, err := acceptor.AcceptSelection(context.Background(), domain.NewDriver("d1", 2), []string{"a", "a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assigner.calls) != 2 || !slices.Equal(result.Assigned, []string{"a", "b"}) {
		t.Fatalf("assigned = %v with %d calls, want [a b]", result.Assigned, len(assigner.calls))
	}
}

func TestAcceptSelectionDriverUpdateFailure(t *testing.T) {
	drivers := &recordingDrivers{err: errors.New("driver service down")}
	acceptor := newTestAcceptor(&recordingAssigner{}, drivers, nil)

	result, err := acceptor.AcceptSelection(context.Background(), domain.NewDriver("d1", 3), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error from driver update")
	}
	if result == nil || len(result.Assigned) != 2 {
		t.Fatalf("result = %+v, want the applied assignments reported", result)
	}
}

func TestAcceptSelectionEventFailureIsNotFatal(t *testing.T) {
	events := &recordingEvents{err: errors.New("broker unavailable")}
	acceptor := newTestAcceptor(&recordingAssigner{}, &recordingDrivers{}, events)

	if _, err := acceptor.AcceptSelection(context.Background(), domain.NewDriver("d1", 3), []string{"a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.events) != 2 {
		t.Fatalf("publish attempts = %d, want 2", len(events.events))
	}
}

type invalidatingSource struct {
	invalidated []string
}

func (s *invalidatingSource) ListAvailableOrders(context.Context, string) ([]*domain.DeliverableOrder, error) {
	return nil, nil
}

func (s *invalidatingSource) Invalidate(_ context.Context, driverID string) error {
	s.invalidated = append(s.invalidated, driverID)
	return nil
}

func TestAcceptSelectionInvalidatesPool(t *testing.T) {
	src := &invalidatingSource{}
	acceptor := newTestAcceptor(&recordingAssigner{}, &recordingDrivers{}, nil)
	acceptor.Refresh = InvalidateOnAccept(src)

	if _, err := acceptor.AcceptSelection(context.Background(), domain.NewDriver("d1", 3), []string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(src.invalidated, []string{"d1"}) {
		t.Fatalf("invalidated = %v, want [d1]", src.invalidated)
	}
}
