package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

type riskBand struct {
	Tier  spatial.RiskTier `json:"tier"`
	MinKm float64          `json:"min_km"`
	MaxKm *float64         `json:"max_km"`
	Color string           `json:"color"`
}

func bandMax(km float64) *float64 { return &km }

// Legend bands follow the tier thresholds at 25 points per 6.25 km.
var riskBands = []riskBand{
	{Tier: spatial.RiskVeryHigh, MinKm: 0, MaxKm: bandMax(6.25), Color: spatial.RiskVeryHigh.Color()},
	{Tier: spatial.RiskHigh, MinKm: 6.25, MaxKm: bandMax(12.5), Color: spatial.RiskHigh.Color()},
	{Tier: spatial.RiskMedium, MinKm: 12.5, MaxKm: bandMax(18.75), Color: spatial.RiskMedium.Color()},
	{Tier: spatial.RiskLow, MinKm: 18.75, Color: spatial.RiskLow.Color()},
}

func (h *Handler) getRisk(c *gin.Context) {
	shelters, _, ok := h.filteredShelters(c)
	if !ok {
		return
	}

	assessments := spatial.AssessShelters(shelters)
	c.JSON(http.StatusOK, gin.H{
		"hazard":      spatial.HazardSource(),
		"assessments": assessments,
		"summary":     spatial.SummarizeRisk(assessments),
		"bands":       riskBands,
	})
}

func (h *Handler) getCoverage(c *gin.Context) {
	radius := h.coverageRadiusM
	if s := c.Query("radius_m"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || r <= 0 || math.IsInf(r, 0) {
			badRequest(c, fmt.Errorf("invalid radius_m %q", s))
			return
		}
		radius = r
	}

	shelters, _, ok := h.filteredShelters(c)
	if !ok {
		return
	}

	report := spatial.Aggregate(shelters, radius)
	c.JSON(http.StatusOK, gin.H{
		"regions":                   report.Regions,
		"total_count":               report.TotalCount,
		"total_coverage_area_km2":   report.TotalCoverageAreaKm2,
		"average_coverage_area_km2": report.AverageCoverageAreaKm2(),
		"service_radius_m":          report.ServiceRadiusM,
		"points":                    spatial.HeatPoints(shelters, spatial.HeatmapCoverage),
	})
}

type capacityCircle struct {
	ShelterID int64   `json:"shelter_id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Capacity  int     `json:"capacity"`
	RadiusM   float64 `json:"radius_m"`
}

func (h *Handler) getCapacity(c *gin.Context) {
	shelters, _, ok := h.filteredShelters(c)
	if !ok {
		return
	}

	circles := make([]capacityCircle, 0, len(shelters))
	for i := range shelters {
		loc, ok := shelters[i].Location()
		if !ok {
			continue
		}
		capacity := shelters[i].CapacityValue()
		circles = append(circles, capacityCircle{
			ShelterID: shelters[i].ID,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Capacity:  capacity,
			RadiusM:   spatial.CapacityCoverageRadiusM(capacity),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"regions": spatial.CapacityByRegion(shelters),
		"circles": circles,
	})
}

func (h *Handler) getHeatmap(c *gin.Context) {
	mode, err := spatial.ParseHeatmapMode(c.Query("mode"))
	if err != nil {
		badRequest(c, err)
		return
	}

	shelters, _, ok := h.filteredShelters(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mode":   mode,
		"points": spatial.HeatPoints(shelters, mode),
	})
}
