package services

import (
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/geo"
	"math"
)

// Order a batch's stops using a greedy nearest-neighbor algorithm.
//
// Starting at start, the closest remaining delivery location is visited next.
// Ties keep the stop that appears first in the input. It does not attempt
// global route optimization; batch sizes are small enough that O(N²) is fine.
// The input slice is not modified.
func SequenceRoute(start domain.Coordinates, orders []*domain.DeliverableOrder) []*domain.DeliverableOrder {
	if len(orders) <= 1 {
		return orders
	}

	remaining := make([]*domain.DeliverableOrder, len(orders))
	copy(remaining, orders)

	current := start
	sequenced := make([]*domain.DeliverableOrder, 0, len(orders))

	for len(remaining) > 0 {
		nearestIdx := 0
		nearestDist := math.Inf(1)

		// Select next stop by minimum distance (greedy step).
		for i, o := range remaining {
			d := geo.Distance(current, o.Location())
			if d < nearestDist {
				nearestDist = d
				nearestIdx = i
			}
		}

		nearest := remaining[nearestIdx]
		sequenced = append(sequenced, nearest)
		remaining = append(remaining[:nearestIdx], remaining[nearestIdx+1:]...)
		current = nearest.Location()
	}

	return sequenced
}

// RouteDistanceKm is the straight-line length of visiting orders in sequence
// from start.
func RouteDistanceKm(start domain.Coordinates, orders []*domain.DeliverableOrder) float64 {
	total := 0.0
	current := start
	for _, o := range orders {
		next := o.Location()
		total += geo.Distance(current, next)
		current = next
	}
	return total
}
