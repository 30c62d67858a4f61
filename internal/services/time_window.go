package services

// Delivery time model, in minutes.
//
// The estimate only uses a stop's position in the batch, not the distance
// between consecutive stops.
const (
	BasePickupMinutes             = 10
	PerOrderMinutes               = 5
	AvgTravelMinutes              = 8
	DefaultMaxDeliveryTimeMinutes = 45
)

// EstimatedMinutes is the estimated completion time of the stop at position
// (0-indexed) within a batch.
func EstimatedMinutes(position int) int {
	return BasePickupMinutes + position*(PerOrderMinutes+AvgTravelMinutes)
}

// CanAddAtPosition reports whether a stop placed at position would still be
// delivered within maxDeliveryTimeMinutes.
func CanAddAtPosition(position, maxDeliveryTimeMinutes int) bool {
	return EstimatedMinutes(position) <= maxDeliveryTimeMinutes
}
