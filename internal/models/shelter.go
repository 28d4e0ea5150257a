package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Valid reports whether c is a finite point with latitude in [-90, 90]
// and longitude in [-180, 180].
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// LooseString holds a JSON scalar that the CRUD API sends either as a string
// or as a bare number (coordinates and capacity).
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}
	*s = LooseString(b)
	return nil
}

// Shelter is a snapshot of one evacuation shelter ("barak") as served by the
// CRUD API. The analysis code never mutates it.
type Shelter struct {
	ID           int64       `json:"id" db:"id"`
	Name         string      `json:"nama_barak" db:"name"`
	Capacity     LooseString `json:"kapasitas" db:"capacity"`
	Facilities   string      `json:"fasilitas" db:"facilities"`
	Address      string      `json:"alamat" db:"address"`
	Region       string      `json:"kecamatan" db:"region"`
	SubRegion    string      `json:"desa" db:"sub_region"`
	Latitude     LooseString `json:"latitude" db:"latitude"`
	Longitude    LooseString `json:"longitude" db:"longitude"`
	BuildingType string      `json:"tipe_bangunan" db:"building_type"`
	CreatedAt    Timestamp   `json:"created_at" db:"created_at"`
	UpdatedAt    Timestamp   `json:"updated_at" db:"updated_at"`
}

// Location parses the shelter coordinates. ok is false when either value is
// not a number or falls outside the valid latitude/longitude range.
func (s *Shelter) Location() (Coordinates, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(string(s.Latitude)), 64)
	if err != nil {
		return Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(string(s.Longitude)), 64)
	if err != nil {
		return Coordinates{}, false
	}
	c := Coordinates{Latitude: lat, Longitude: lng}
	return c, c.Valid()
}

// CapacityValue reads the leading integer of the capacity field ("250 orang"
// is 250). Missing, negative or unparseable capacity counts as 0.
func (s *Shelter) CapacityValue() int {
	raw := strings.TrimSpace(string(s.Capacity))
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return n
}

func (s *Shelter) Type() BuildingType {
	return ParseBuildingType(s.BuildingType)
}
