package spatial

import (
	"github.com/golang/geo/s2"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

// Bounds is a lat/lng box the map can fit its viewport to.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundingBox returns the smallest box containing all points, and false when
// points is empty.
func BoundingBox(points []models.Coordinates) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Latitude, p.Longitude))
	}

	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}, true
}
