package services

import (
	"driver-batching-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Fee policy in currency units.
const (
	PerOrderFee        = 50
	PerExtraOrderBonus = 20
)

// ComputeEarnings prices a set of orderCount orders: a base fee per order plus
// a bonus for every order after the first.
func ComputeEarnings(orderCount int) domain.Earnings {
	if orderCount <= 0 {
		return domain.Earnings{}
	}

	base := orderCount * PerOrderFee
	bonus := 0
	if orderCount > 1 {
		bonus = (orderCount - 1) * PerExtraOrderBonus
	}

	return domain.Earnings{Base: base, Bonus: bonus, Total: base + bonus}
}

// PreviewSelection prices a driver's selection, which need not match any
// proposed batch.
func PreviewSelection(sel domain.DriverSelection) domain.Earnings {
	return ComputeEarnings(sel.Len())
}

// GetBatchInfo derives display facts for a batch. It returns false for an
// empty batch.
func GetBatchInfo(batch domain.Batch) (domain.BatchInfo, bool) {
	n := batch.Len()
	if n == 0 {
		return domain.BatchInfo{}, false
	}

	seen := make(map[string]struct{}, n)
	restaurants := make([]string, 0, 1)
	totalItems := 0
	totalAmount := decimal.Zero

	for _, o := range batch.Orders {
		totalItems += o.ItemCount
		totalAmount = totalAmount.Add(o.TotalAmount)

		if _, ok := seen[o.RestaurantName]; ok {
			continue
		}
		seen[o.RestaurantName] = struct{}{}
		restaurants = append(restaurants, o.RestaurantName)
	}

	return domain.BatchInfo{
		OrderCount:           n,
		TotalItems:           totalItems,
		TotalAmount:          totalAmount,
		Restaurants:          restaurants,
		IsSameRestaurant:     len(restaurants) == 1,
		EstimatedTimeMinutes: EstimatedMinutes(n - 1),
		Earnings:             ComputeEarnings(n),
	}, true
}
