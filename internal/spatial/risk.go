package spatial

import "github.com/mr1hm/siaga-merapi/internal/models"

type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskVeryHigh RiskTier = "very_high"
)

// Score falls by 4 points per km and reaches 0 at 25 km.
const riskDecayPerKm = 4.0

var tierColors = map[RiskTier]string{
	RiskVeryHigh: "#cc0000",
	RiskHigh:     "#ff4400",
	RiskMedium:   "#ffaa00",
	RiskLow:      "#00aa00",
}

func (t RiskTier) Color() string {
	return tierColors[t]
}

type RiskAssessment struct {
	ShelterID  int64    `json:"shelter_id"`
	DistanceKm float64  `json:"distance_km"`
	RiskScore  float64  `json:"risk_score"`
	RiskTier   RiskTier `json:"risk_tier"`
}

// RiskScore converts a distance from the hazard source into a score in
// [0, 100].
func RiskScore(distanceKm float64) float64 {
	return max(0, 100-distanceKm*riskDecayPerKm)
}

// TierForScore buckets a score; every threshold is inclusive.
func TierForScore(score float64) RiskTier {
	switch {
	case score >= 75:
		return RiskVeryHigh
	case score >= 50:
		return RiskHigh
	case score >= 25:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskOf scores point against hazard.
func RiskOf(point, hazard models.Coordinates) RiskAssessment {
	d := Distance(point, hazard)
	score := RiskScore(d)
	return RiskAssessment{
		DistanceKm: d,
		RiskScore:  score,
		RiskTier:   TierForScore(score),
	}
}

// AssessShelters scores every validly located shelter against the Merapi
// summit, in input order. Shelters without usable coordinates are skipped.
func AssessShelters(shelters []models.Shelter) []RiskAssessment {
	out := make([]RiskAssessment, 0, len(shelters))
	for i := range shelters {
		loc, ok := shelters[i].Location()
		if !ok {
			continue
		}
		a := RiskOf(loc, HazardSource())
		a.ShelterID = shelters[i].ID
		out = append(out, a)
	}
	return out
}

type RiskSummary struct {
	VeryHigh int `json:"very_high"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

func (s RiskSummary) Total() int {
	return s.VeryHigh + s.High + s.Medium + s.Low
}

func SummarizeRisk(assessments []RiskAssessment) RiskSummary {
	var s RiskSummary
	for _, a := range assessments {
		switch a.RiskTier {
		case RiskVeryHigh:
			s.VeryHigh++
		case RiskHigh:
			s.High++
		case RiskMedium:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}
