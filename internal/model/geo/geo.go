package geo

import (
	"errors"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// ErrNoCoordinates is returned when a centroid is requested for an empty set.
var ErrNoCoordinates = errors.New("no coordinates to average")

// Coordinate is a WGS 84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the coordinate is the degenerate (0,0) point, which
// third-party APIs use as a stand-in for "unknown".
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Midpoint returns the arithmetic centroid of the given coordinates.
func Midpoint(coords []Coordinate) (Coordinate, error) {
	if len(coords) == 0 {
		return Coordinate{}, ErrNoCoordinates
	}

	var lat, lng float64
	for _, c := range coords {
		lat += c.Lat
		lng += c.Lng
	}

	n := float64(len(coords))
	return Coordinate{Lat: lat / n, Lng: lng / n}, nil
}

// DistanceM returns the great-circle distance between two coordinates in meters.
func DistanceM(a, b Coordinate) float64 {
	return orbgeo.Distance(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat})
}
