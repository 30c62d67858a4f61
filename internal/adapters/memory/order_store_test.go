package memory

import (
	"context"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/ports"
	"errors"
	"testing"
)

func TestOrderStoreConditionalAssign(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()
	store.AddReady(
		&domain.DeliverableOrder{ID: "o1", RestaurantID: "r1"},
		&domain.DeliverableOrder{ID: "o2", RestaurantID: "r1"},
	)

	update := ports.AssignmentUpdate{Status: domain.OrderStatusPickedUp}
	if err := store.AssignOrder(ctx, "o1", "d1", update); err != nil {
		t.Fatalf("first assign: unexpected error: %v", err)
	}

	err := store.AssignOrder(ctx, "o1", "d2", update)
	if !errors.Is(err, ports.ErrAssignmentConflict) {
		t.Fatalf("second assign: err = %v, want ErrAssignmentConflict", err)
	}

	if err := store.AssignOrder(ctx, "missing", "d1", update); !errors.Is(err, ports.ErrOrderNotFound) {
		t.Fatalf("missing order: err = %v, want ErrOrderNotFound", err)
	}

	available, err := store.ListAvailableOrders(ctx, "d2")
	if err != nil {
		t.Fatalf("list: unexpected error: %v", err)
	}
	if len(available) != 1 || available[0].ID != "o2" {
		t.Fatalf("available = %v, want only o2", available)
	}

	driverID, got, ok := store.Assignment("o1")
	if !ok || driverID != "d1" || got.Status != domain.OrderStatusPickedUp {
		t.Fatalf("assignment = %q %+v %v, want d1 picked_up", driverID, got, ok)
	}
}

func TestOrderStoreGetDriver(t *testing.T) {
	store := NewOrderStore()
	store.AddDriver(&domain.Driver{ID: "d1", MaxBatchOrders: 4})

	d, err := store.GetDriver(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.MaxBatchOrders != 4 {
		t.Fatalf("max batch orders = %d, want 4", d.MaxBatchOrders)
	}

	if _, err := store.GetDriver(context.Background(), "nope"); !errors.Is(err, ports.ErrDriverNotFound) {
		t.Fatalf("err = %v, want ErrDriverNotFound", err)
	}
}
