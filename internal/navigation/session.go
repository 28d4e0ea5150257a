// Package navigation manages per-client navigation sessions, each owning one
// route request state machine.
package navigation

import (
	"math"
	"time"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/routing"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

type session struct {
	id          string
	machine     *routing.Machine
	destination *Destination
	createdAt   time.Time
	lastSeen    time.Time
}

// Destination is the shelter picked as the route end, if any.
type Destination struct {
	ShelterID  int64   `json:"shelter_id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}

type RouteView struct {
	Coordinates     []models.Coordinates  `json:"coordinates"`
	DistanceKm      float64               `json:"distance_km"`
	DurationMinutes int                   `json:"duration_minutes"`
	Instructions    []routing.Instruction `json:"instructions"`
}

// View is what clients see of a session.
type View struct {
	ID          string              `json:"id"`
	State       string              `json:"state"`
	Start       *models.Coordinates `json:"start"`
	End         *models.Coordinates `json:"end"`
	Destination *Destination        `json:"destination,omitempty"`
	Route       *RouteView          `json:"route,omitempty"`
	Bounds      *spatial.Bounds     `json:"bounds,omitempty"`
	ErrorKind   string              `json:"error_kind,omitempty"`
	Message     string              `json:"message,omitempty"`
	Version     uint64              `json:"version"`
	CreatedAt   time.Time           `json:"created_at"`
}

func newView(s *session, snap routing.Snapshot) View {
	v := View{
		ID:        s.id,
		State:     snap.State.String(),
		Start:     snap.Start,
		End:       snap.End,
		Version:   snap.Version,
		CreatedAt: s.createdAt,
	}

	if snap.State == routing.Succeeded && snap.Result != nil {
		r := snap.Result
		v.Route = &RouteView{
			Coordinates:     r.Coordinates,
			DistanceKm:      math.Round(r.DistanceKm*100) / 100,
			DurationMinutes: r.DurationMinutes,
			Instructions:    r.Instructions,
		}
		bounds := r.Bounds
		v.Bounds = &bounds
	}
	if snap.State == routing.Failed {
		v.ErrorKind = routing.Kind(snap.Err)
		v.Message = snap.Message()
	}
	return v
}
