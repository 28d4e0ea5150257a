package models

import "time"

type StatusLevel string

// Volcano activity levels, lowest to highest.
const (
	StatusNormal  StatusLevel = "normal"
	StatusWaspada StatusLevel = "waspada"
	StatusSiaga   StatusLevel = "siaga"
	StatusAwas    StatusLevel = "awas"
)

var statusOrder = []StatusLevel{StatusNormal, StatusWaspada, StatusSiaga, StatusAwas}

func StatusLevels() []StatusLevel {
	out := make([]StatusLevel, len(statusOrder))
	copy(out, statusOrder)
	return out
}

func (l StatusLevel) Valid() bool {
	return l.Index() >= 0
}

// Index returns the 0-3 severity of l, or -1 for an unknown level.
func (l StatusLevel) Index() int {
	for i, s := range statusOrder {
		if s == l {
			return i
		}
	}
	return -1
}

// StatusLevelByIndex returns the level at severity i, defaulting to normal.
func StatusLevelByIndex(i int) StatusLevel {
	if i < 0 || i >= len(statusOrder) {
		return StatusNormal
	}
	return statusOrder[i]
}

type VolcanoStatus struct {
	Level     StatusLevel `json:"status"`
	UpdatedAt time.Time   `json:"timestamp"`
}
