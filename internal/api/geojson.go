package api

import (
	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders shelters as map markers. Shelters without usable
// coordinates, or sitting on a zero latitude or longitude, get no marker.
// distance_km is added when user is set.
func toGeoJSON(shelters []models.Shelter, user *models.Coordinates) FeatureCollection {
	features := make([]Feature, 0, len(shelters))
	hazard := spatial.HazardSource()

	for i := range shelters {
		s := &shelters[i]
		loc, ok := s.Location()
		if !ok || loc.Latitude == 0 || loc.Longitude == 0 {
			continue
		}

		risk := spatial.RiskOf(loc, hazard)
		props := map[string]any{
			"id":                    s.ID,
			"name":                  s.Name,
			"capacity":              s.CapacityValue(),
			"facilities":            s.Facilities,
			"address":               s.Address,
			"kecamatan":             s.Region,
			"desa":                  s.SubRegion,
			"building_type":         s.Type().String(),
			"style":                 s.Type().Style(),
			"distance_to_merapi_km": risk.DistanceKm,
			"risk_score":            risk.RiskScore,
			"risk_tier":             risk.RiskTier,
		}
		if user != nil {
			props["distance_km"] = spatial.Distance(*user, loc)
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{loc.Longitude, loc.Latitude},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
