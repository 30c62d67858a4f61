package services

import (
	"context"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"errors"
	"fmt"
)

// Planner turns the availability pool into a batch plan for one driver.
// It holds no state between calls; every plan is computed from a fresh
// snapshot.
type Planner struct {
	Orders  ports.OrderSource
	Options GroupOptions
}

func NewPlanner(orders ports.OrderSource, opts GroupOptions) *Planner {
	return &Planner{Orders: orders, Options: opts}
}

// PlanBatches fetches the pool visible to driver, groups it and annotates
// each batch. The driver's capacity caps the batch size.
func (p *Planner) PlanBatches(ctx context.Context, driver *domain.Driver) (_ *domain.BatchPlan, err error) {
	defer obs.Time(ctx, "planner.PlanBatches")(&err)

	if driver == nil || driver.ID == "" {
		return nil, errors.New("plan batches: driver must be non-nil with an id")
	}

	orders, err := p.Orders.ListAvailableOrders(ctx, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("plan batches: list available orders: %w", err)
	}

	opts := p.Options
	opts.MaxBatchSize = driver.Capacity()

	return BuildBatchPlan(driver.ID, orders, opts), nil
}

// BuildBatchPlan groups orders and derives the dashboard views.
func BuildBatchPlan(driverID string, orders []*domain.DeliverableOrder, opts GroupOptions) *domain.BatchPlan {
	batches := GroupOrdersForBatching(orders, opts)

	plan := &domain.BatchPlan{
		DriverID: driverID,
		Batches:  make([]domain.BatchView, 0, len(batches)),
		Orders:   make([]domain.OrderView, 0, len(orders)),
	}

	batchOf := make(map[string]int, len(orders))
	for i, b := range batches {
		info, ok := GetBatchInfo(b)
		if !ok {
			continue
		}
		obs.ObserveBatchSize(b.Len())

		if b.Len() > 1 {
			plan.HasBatchableOrders = true
			if info.IsSameRestaurant {
				plan.SameRestaurantBatchCount++
			}
		}

		for _, o := range b.Orders {
			batchOf[o.ID] = i
		}
		plan.Batches = append(plan.Batches, domain.BatchView{Batch: b, Info: info})
	}

	// The flat view keeps input order.
	for _, o := range orders {
		if o == nil {
			continue
		}
		idx, ok := batchOf[o.ID]
		if !ok {
			continue
		}
		plan.Orders = append(plan.Orders, domain.OrderView{
			Order:         o,
			BatchIndex:    idx,
			HasBatchmates: batches[idx].Len() > 1,
		})
	}

	return plan
}
