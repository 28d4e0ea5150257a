package spatial

import (
	"slices"
	"strings"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

// Criteria narrows a shelter list. Zero values mean "no constraint"; the
// distance constraint applies only when both UserLocation and MaxDistanceKm
// are set.
type Criteria struct {
	Text          string
	Region        string
	SubRegion     string
	UserLocation  *models.Coordinates
	MaxDistanceKm *float64
}

// Filter returns the shelters matching every constraint in c, keeping input
// order.
func Filter(shelters []models.Shelter, c Criteria) []models.Shelter {
	text := strings.ToLower(c.Text)
	useDistance := c.UserLocation != nil && c.MaxDistanceKm != nil
	if useDistance && !c.UserLocation.Valid() {
		return []models.Shelter{}
	}

	out := make([]models.Shelter, 0, len(shelters))
	for i := range shelters {
		s := &shelters[i]
		if text != "" && !matchesText(s, text) {
			continue
		}
		if c.Region != "" && s.Region != c.Region {
			continue
		}
		if c.SubRegion != "" && s.SubRegion != c.SubRegion {
			continue
		}
		if useDistance {
			loc, ok := s.Location()
			if !ok || Distance(*c.UserLocation, loc) > *c.MaxDistanceKm {
				continue
			}
		}
		out = append(out, *s)
	}
	return out
}

func matchesText(s *models.Shelter, lowered string) bool {
	for _, field := range []string{s.Name, s.Address, s.Region, s.SubRegion} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// Regions lists the distinct non-blank kecamatan names, sorted.
func Regions(shelters []models.Shelter) []string {
	return distinct(shelters, func(s *models.Shelter) (string, bool) {
		return s.Region, true
	})
}

// SubRegions lists the distinct non-blank desa names, sorted, limited to
// region when it is not empty.
func SubRegions(shelters []models.Shelter, region string) []string {
	return distinct(shelters, func(s *models.Shelter) (string, bool) {
		return s.SubRegion, region == "" || s.Region == region
	})
}

func distinct(shelters []models.Shelter, pick func(*models.Shelter) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for i := range shelters {
		v, ok := pick(&shelters[i])
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
