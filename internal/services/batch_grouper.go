package services

import (
	"cmp"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/geo"
	"slices"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxDistanceKm = 2.0
	DefaultMaxBatchSize  = 3
)

// Limits applied while grouping orders into batches.
type GroupOptions struct {
	MaxDistanceKm          float64
	MaxBatchSize           int
	MaxDeliveryTimeMinutes int
	// Route start for sequencing; nil means domain.DefaultCoordinates.
	Start *domain.Coordinates
}

func DefaultGroupOptions() GroupOptions {
	return GroupOptions{
		MaxDistanceKm:          DefaultMaxDistanceKm,
		MaxBatchSize:           DefaultMaxBatchSize,
		MaxDeliveryTimeMinutes: DefaultMaxDeliveryTimeMinutes,
	}
}

// normalized clamps invalid limits. Configuration loading rejects these
// values up front, so reaching a clamp here means a caller bypassed it.
func (o GroupOptions) normalized() GroupOptions {
	if o.MaxBatchSize <= 0 {
		log.Warn().Int("max_batch_size", o.MaxBatchSize).Msg("group orders: max batch size must be positive, clamping to 1")
		o.MaxBatchSize = 1
	}
	if o.MaxDistanceKm < 0 {
		log.Warn().Float64("max_distance_km", o.MaxDistanceKm).Msg("group orders: negative max distance, clamping to 0")
		o.MaxDistanceKm = 0
	}
	return o
}

// GroupOrdersForBatching partitions ready orders into route-sequenced batches.
//
// Orders are only batched with orders from the same restaurant. Within a
// restaurant the oldest ready order is considered first, and a candidate joins
// the open batch when it is within MaxDistanceKm of the batch's first order,
// the batch still has room, and its position passes the delivery time check.
// Otherwise the open batch is closed and the candidate starts a new one.
// Restaurant groups are processed in restaurant id order so output is stable.
func GroupOrdersForBatching(orders []*domain.DeliverableOrder, opts GroupOptions) []domain.Batch {
	opts = opts.normalized()

	if len(orders) == 0 {
		return []domain.Batch{}
	}

	start := opts.Start.OrDefault()

	byRestaurant := make(map[string][]*domain.DeliverableOrder)
	for _, o := range orders {
		if o == nil {
			continue
		}
		byRestaurant[o.RestaurantID] = append(byRestaurant[o.RestaurantID], o)
	}

	restaurantIDs := make([]string, 0, len(byRestaurant))
	for id := range byRestaurant {
		restaurantIDs = append(restaurantIDs, id)
	}
	slices.Sort(restaurantIDs)

	batches := make([]domain.Batch, 0, len(orders))
	used := make(map[string]struct{}, len(orders))

	closeBatch := func(current []*domain.DeliverableOrder) {
		if len(current) == 0 {
			return
		}
		batches = append(batches, domain.Batch{Orders: SequenceRoute(start, current)})
	}

	for _, rid := range restaurantIDs {
		group := slices.Clone(byRestaurant[rid])

		// Oldest first; equal timestamps keep input order.
		slices.SortStableFunc(group, func(a, b *domain.DeliverableOrder) int {
			return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		})

		var current []*domain.DeliverableOrder

		for _, o := range group {
			if _, ok := used[o.ID]; ok {
				continue
			}
			used[o.ID] = struct{}{}

			if len(current) == 0 {
				current = []*domain.DeliverableOrder{o}
				continue
			}

			dist := geo.Distance(current[0].Location(), o.Location())
			canAdd := dist <= opts.MaxDistanceKm &&
				len(current) < opts.MaxBatchSize &&
				CanAddAtPosition(len(current), opts.MaxDeliveryTimeMinutes)

			if canAdd {
				current = append(current, o)
				continue
			}

			closeBatch(current)
			current = []*domain.DeliverableOrder{o}
		}

		closeBatch(current)
	}

	return batches
}
