package spatial

import (
	"math"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

type NearestResult struct {
	Shelter    models.Shelter `json:"shelter"`
	DistanceKm float64        `json:"distance_km"`
}

// Nearest scans shelters for the one closest to user. On equal distances the
// earlier shelter wins. ok is false when user is nil or invalid, or when no
// shelter has usable coordinates.
func Nearest(user *models.Coordinates, shelters []models.Shelter) (NearestResult, bool) {
	if user == nil || !user.Valid() || len(shelters) == 0 {
		return NearestResult{}, false
	}

	best := -1
	minDistance := math.Inf(1)
	for i := range shelters {
		loc, ok := shelters[i].Location()
		if !ok {
			continue
		}
		if d := Distance(*user, loc); d < minDistance {
			minDistance = d
			best = i
		}
	}

	if best < 0 {
		return NearestResult{}, false
	}
	return NearestResult{Shelter: shelters[best], DistanceKm: minDistance}, true
}
