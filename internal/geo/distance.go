package geo

import (
	"math"

	"driver-batching-service/internal/domain"
)

// EarthRadiusKm is Earth's mean radius used for Haversine calculation.
const EarthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance between two points
// on Earth in kilometers. Inputs are degrees and are not range checked.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Distance is HaversineKm over domain coordinates.
func Distance(a, b domain.Coordinates) float64 {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}
