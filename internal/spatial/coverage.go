package spatial

import (
	"math"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

const (
	DefaultServiceRadiusM = 2000.0

	// Region bucket for shelters without a kecamatan.
	UnknownRegion = "Unknown"
)

type RegionAggregate struct {
	Count                int     `json:"count"`
	TotalCoverageAreaKm2 float64 `json:"total_coverage_area_km2"`
	AverageDistanceKm    float64 `json:"average_distance_km"`
}

type CoverageReport struct {
	Regions              map[string]RegionAggregate `json:"regions"`
	TotalCount           int                        `json:"total_count"`
	TotalCoverageAreaKm2 float64                    `json:"total_coverage_area_km2"`
	ServiceRadiusM       float64                    `json:"service_radius_m"`
}

// AverageCoverageAreaKm2 is the mean area per counted shelter.
func (r CoverageReport) AverageCoverageAreaKm2() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return r.TotalCoverageAreaKm2 / float64(r.TotalCount)
}

// CoverageAreaKm2 is the area of a circle with the given radius in metres.
func CoverageAreaKm2(radiusM float64) float64 {
	r := radiusM / 1000
	return math.Pi * r * r
}

// Aggregate folds the shelters into per-region coverage statistics. Each
// validly located shelter covers a circle of radiusM; shelters with unusable
// coordinates are left out of every count.
func Aggregate(shelters []models.Shelter, radiusM float64) CoverageReport {
	area := CoverageAreaKm2(radiusM)

	type bucket struct {
		count         int
		area          float64
		distanceTotal float64
	}
	buckets := make(map[string]*bucket)

	report := CoverageReport{ServiceRadiusM: radiusM}
	for i := range shelters {
		loc, ok := shelters[i].Location()
		if !ok {
			continue
		}
		region := shelters[i].Region
		if region == "" {
			region = UnknownRegion
		}

		b, ok := buckets[region]
		if !ok {
			b = &bucket{}
			buckets[region] = b
		}
		b.count++
		b.area += area
		b.distanceTotal += DistanceToHazard(loc)

		report.TotalCount++
		report.TotalCoverageAreaKm2 += area
	}

	report.Regions = make(map[string]RegionAggregate, len(buckets))
	for region, b := range buckets {
		report.Regions[region] = RegionAggregate{
			Count:                b.count,
			TotalCoverageAreaKm2: b.area,
			AverageDistanceKm:    b.distanceTotal / float64(b.count),
		}
	}
	return report
}

// CapacityCoverageRadiusM estimates a shelter's service radius from its
// capacity: 2 m per person with a 500 m floor.
func CapacityCoverageRadiusM(capacity int) float64 {
	return max(500, float64(capacity)*2)
}

type RegionCapacity struct {
	Count                int     `json:"count"`
	TotalCapacity        int     `json:"total_capacity"`
	AverageCapacity      int     `json:"average_capacity"`
	MinCapacity          int     `json:"min_capacity"`
	MaxCapacity          int     `json:"max_capacity"`
	AverageDistanceKm    float64 `json:"average_distance_km"`
	TotalCoverageAreaKm2 float64 `json:"total_coverage_area_km2"`
}

// CapacityByRegion summarises shelter capacity per kecamatan. Coverage here
// uses a radius of 0.002 km per person with a 0.5 km floor.
func CapacityByRegion(shelters []models.Shelter) map[string]RegionCapacity {
	out := make(map[string]RegionCapacity)
	distances := make(map[string]float64)

	for i := range shelters {
		loc, ok := shelters[i].Location()
		if !ok {
			continue
		}
		region := shelters[i].Region
		if region == "" {
			region = UnknownRegion
		}
		capacity := shelters[i].CapacityValue()

		rc, seen := out[region]
		if !seen || capacity < rc.MinCapacity {
			rc.MinCapacity = capacity
		}
		rc.Count++
		rc.TotalCapacity += capacity
		rc.MaxCapacity = max(rc.MaxCapacity, capacity)

		radiusKm := max(0.5, float64(capacity)*0.002)
		rc.TotalCoverageAreaKm2 += math.Pi * radiusKm * radiusKm
		distances[region] += DistanceToHazard(loc)
		out[region] = rc
	}

	for region, rc := range out {
		rc.AverageCapacity = int(math.Round(float64(rc.TotalCapacity) / float64(rc.Count)))
		rc.AverageDistanceKm = math.Round(distances[region]/float64(rc.Count)*100) / 100
		out[region] = rc
	}
	return out
}
