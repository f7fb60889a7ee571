package models

import (
	"fmt"
	"math"
)

// Coordinates is an immutable latitude/longitude pair. A new location always
// produces a new value; holders never mutate one in place.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are finite and within
// lat [-90, 90], lon [-180, 180].
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// FallbackLabel returns a coordinate-derived place label for when every
// reverse-geocoding provider has failed.
func (c Coordinates) FallbackLabel() string {
	return fmt.Sprintf("Lat %.2f, Lon %.2f", c.Lat, c.Lon)
}
