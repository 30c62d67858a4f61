package memory

import (
	"context"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/ports"
	"fmt"
	"sync"
)

type orderRecord struct {
	order     domain.DeliverableOrder
	status    string
	driverID  string
	isBatched bool
	batchID   string
}

// OrderStore is an in-memory order and driver store implementing the
// planner's ports. Safe for concurrent use.
type OrderStore struct {
	mu      sync.Mutex
	orders  map[string]*orderRecord
	seq     []string
	drivers map[string]*domain.Driver
	status  map[string]ports.DriverStatus
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:  make(map[string]*orderRecord),
		drivers: make(map[string]*domain.Driver),
		status:  make(map[string]ports.DriverStatus),
	}
}

// AddReady inserts orders in the ready, unassigned state.
func (s *OrderStore) AddReady(orders ...*domain.DeliverableOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range orders {
		if _, ok := s.orders[o.ID]; !ok {
			s.seq = append(s.seq, o.ID)
		}
		s.orders[o.ID] = &orderRecord{order: *o, status: domain.OrderStatusReady}
	}
}

func (s *OrderStore) AddDriver(d *domain.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.drivers[d.ID] = &cp
}

func (s *OrderStore) ListAvailableOrders(ctx context.Context, driverID string) ([]*domain.DeliverableOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.DeliverableOrder, 0, len(s.seq))
	for _, id := range s.seq {
		r := s.orders[id]
		if r.status != domain.OrderStatusReady || r.driverID != "" {
			continue
		}
		o := r.order
		out = append(out, &o)
	}
	return out, nil
}

func (s *OrderStore) AssignOrder(ctx context.Context, orderID string, driverID string, update ports.AssignmentUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("assign order %q: %w", orderID, ports.ErrOrderNotFound)
	}
	if r.status != domain.OrderStatusReady || r.driverID != "" {
		return fmt.Errorf("assign order %q: %w", orderID, ports.ErrAssignmentConflict)
	}

	r.status = update.Status
	r.driverID = driverID
	r.isBatched = update.IsBatched
	r.batchID = update.BatchID
	return nil
}

func (s *OrderStore) SetDriverBusy(ctx context.Context, driverID string, status ports.DriverStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[driverID] = status
	return nil
}

func (s *OrderStore) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[driverID]
	if !ok {
		return nil, fmt.Errorf("get driver %q: %w", driverID, ports.ErrDriverNotFound)
	}
	cp := *d
	return &cp, nil
}

// Assignment reports who holds orderID and with which batch fields.
func (s *OrderStore) Assignment(orderID string) (driverID string, update ports.AssignmentUpdate, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, found := s.orders[orderID]
	if !found || r.driverID == "" {
		return "", ports.AssignmentUpdate{}, false
	}
	return r.driverID, ports.AssignmentUpdate{Status: r.status, IsBatched: r.isBatched, BatchID: r.batchID}, true
}

func (s *OrderStore) DriverStatus(driverID string) (ports.DriverStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[driverID]
	return st, ok
}
