// Package spatial holds the shelter analysis computations: distances to the
// Merapi summit, risk scoring, coverage aggregation, filtering and nearest
// shelter lookup. Everything here is synchronous and side-effect free.
package spatial

import (
	"github.com/golang/geo/s2"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

const (
	EarthRadiusKm = 6371.0

	// Merapi summit, the origin for every hazard distance.
	MerapiLatitude  = -7.540585
	MerapiLongitude = 110.44638
)

// HazardSource returns the Merapi summit as a point.
func HazardSource() models.Coordinates {
	return models.Coordinates{Latitude: MerapiLatitude, Longitude: MerapiLongitude}
}

// Distance returns the great-circle (haversine) distance between a and b in
// kilometres. Callers validate the points first.
func Distance(a, b models.Coordinates) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// DistanceToHazard is Distance(p, HazardSource()).
func DistanceToHazard(p models.Coordinates) float64 {
	return Distance(p, HazardSource())
}
