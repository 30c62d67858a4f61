package domain

// Geographic coordinates in degrees (latitude, longitude).
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// DefaultCoordinates stands in for any missing delivery location and for the
// route start when no driver position is known.
var DefaultCoordinates = Coordinates{Lat: 12.9716, Lon: 77.5946}

// OrDefault returns c, or DefaultCoordinates when c is nil.
func (c *Coordinates) OrDefault() Coordinates {
	if c == nil {
		return DefaultCoordinates
	}
	return *c
}
