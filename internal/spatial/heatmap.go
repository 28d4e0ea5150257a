package spatial

import (
	"fmt"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

type HeatmapMode string

const (
	HeatmapDensity  HeatmapMode = "density"
	HeatmapCapacity HeatmapMode = "capacity"
	HeatmapRisk     HeatmapMode = "risk"
	HeatmapCoverage HeatmapMode = "coverage"
)

const (
	minHeatWeight     = 0.1
	coverageIntensity = 0.7
	riskHeatRadiusKm  = 30.0
)

func ParseHeatmapMode(s string) (HeatmapMode, error) {
	switch m := HeatmapMode(s); m {
	case HeatmapDensity, HeatmapCapacity, HeatmapRisk, HeatmapCoverage:
		return m, nil
	case "":
		return HeatmapDensity, nil
	default:
		return "", fmt.Errorf("unknown heatmap mode %q", s)
	}
}

type HeatPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Weight    float64 `json:"weight"`
}

// HeatPoints turns shelters into weighted heat layer points. Shelters sitting
// on 0,0 or with unusable coordinates are dropped.
func HeatPoints(shelters []models.Shelter, mode HeatmapMode) []HeatPoint {
	points := make([]HeatPoint, 0, len(shelters))
	for i := range shelters {
		loc, ok := shelters[i].Location()
		if !ok || loc.Latitude == 0 || loc.Longitude == 0 {
			continue
		}

		var weight float64
		switch mode {
		case HeatmapCapacity:
			weight = float64(shelters[i].CapacityValue()) / 100
		case HeatmapRisk:
			weight = 1 - DistanceToHazard(loc)/riskHeatRadiusKm
		case HeatmapCoverage:
			weight = coverageIntensity
		default:
			weight = 1
		}

		points = append(points, HeatPoint{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Weight:    max(minHeatWeight, weight),
		})
	}
	return points
}
