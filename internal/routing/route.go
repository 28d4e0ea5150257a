// Package routing fetches driving routes between two points and tracks the
// lifecycle of the current route request for a navigation session.
package routing

import (
	"context"
	"fmt"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

// Fetcher asks a routing service for the route from start to end.
// Implementations must honour ctx cancellation.
type Fetcher interface {
	Route(ctx context.Context, start, end models.Coordinates) (*RouteResult, error)
}

type Instruction struct {
	Text         string  `json:"text"`
	DistanceM    float64 `json:"distance_m"`
	DurationS    float64 `json:"duration_s"`
	ManeuverType string  `json:"type"`
}

// RouteResult is the first route returned for a start/end pair. Coordinates
// are in lat/lng order.
type RouteResult struct {
	Coordinates     []models.Coordinates `json:"coordinates"`
	DistanceKm      float64              `json:"distance_km"`
	DurationMinutes int                  `json:"duration_minutes"`
	Instructions    []Instruction        `json:"instructions"`
	Bounds          spatial.Bounds       `json:"bounds"`
}

// ValidatePair checks both endpoints before any network call is made.
func ValidatePair(start, end models.Coordinates) error {
	if !start.Valid() {
		return fmt.Errorf("%w: start %.6f,%.6f", ErrInvalidCoordinates, start.Latitude, start.Longitude)
	}
	if !end.Valid() {
		return fmt.Errorf("%w: end %.6f,%.6f", ErrInvalidCoordinates, end.Latitude, end.Longitude)
	}
	return nil
}

// RequestKey identifies a start/end pair in logs.
func RequestKey(start, end models.Coordinates) string {
	return fmt.Sprintf("%v,%v-%v,%v", start.Latitude, start.Longitude, end.Latitude, end.Longitude)
}
