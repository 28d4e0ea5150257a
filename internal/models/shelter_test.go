package models

import (
	"encoding/json"
	"testing"
)

func TestShelter_DecodeMixedScalars(t *testing.T) {
	raw := `{
		"id": 7,
		"nama_barak": "Barak Glagaharjo",
		"kapasitas": "300",
		"kecamatan": "Cangkringan",
		"desa": "Glagaharjo",
		"latitude": -7.6,
		"longitude": "110.47",
		"tipe_bangunan": "Fasilitas Pendidikan",
		"created_at": "2024-03-01T10:00:00.000000Z",
		"updated_at": "2024-03-02 08:30:00"
	}`

	var s Shelter
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	loc, ok := s.Location()
	if !ok {
		t.Fatal("expected valid location")
	}
	if loc.Latitude != -7.6 || loc.Longitude != 110.47 {
		t.Errorf("unexpected location %+v", loc)
	}
	if s.CapacityValue() != 300 {
		t.Errorf("expected capacity 300, got %d", s.CapacityValue())
	}
	if s.Type() != BuildingEducationFacility {
		t.Errorf("expected education facility, got %s", s.Type())
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("expected both timestamps to parse")
	}
}

func TestShelter_Location(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng LooseString
		wantOK   bool
	}{
		{"valid", "-7.54", "110.44", true},
		{"not a number", "abc", "110.44", false},
		{"empty", "", "", false},
		{"latitude out of range", "95", "110", false},
		{"longitude out of range", "-7", "181", false},
		{"boundary", "-90", "180", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Shelter{Latitude: tt.lat, Longitude: tt.lng}
			if _, ok := s.Location(); ok != tt.wantOK {
				t.Errorf("Location() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestShelter_CapacityValue(t *testing.T) {
	tests := map[LooseString]int{
		"":          0,
		"150":       150,
		"250 orang": 250,
		"banyak":    0,
		"-20":       0,
		" 42 ":      42,
	}
	for in, want := range tests {
		s := Shelter{Capacity: in}
		if got := s.CapacityValue(); got != want {
			t.Errorf("CapacityValue(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseBuildingType_DefaultsToEvacuationShelter(t *testing.T) {
	if got := ParseBuildingType("Gudang"); got != BuildingEvacuationShelter {
		t.Errorf("expected fallback to evacuation shelter, got %s", got)
	}
	if got := ParseBuildingType("Kantor Pemerintahan"); got != BuildingGovernmentOffice {
		t.Errorf("expected government office, got %s", got)
	}
	for _, label := range []string{"fasilitas pendidikan", " Fasilitas Pendidikan", "FASILITAS OLAHRAGA"} {
		if got := ParseBuildingType(label); got != BuildingEvacuationShelter {
			t.Errorf("ParseBuildingType(%q) = %s, want fallback", label, got)
		}
	}
	if style := BuildingSportsFacility.Style(); style.Color != "purple" || style.Icon != "tent" {
		t.Errorf("unexpected style %+v", style)
	}
}

func TestStatusLevel(t *testing.T) {
	if StatusSiaga.Index() != 2 {
		t.Errorf("expected siaga index 2, got %d", StatusSiaga.Index())
	}
	if StatusLevel("meletus").Valid() {
		t.Error("expected unknown level to be invalid")
	}
	if StatusLevelByIndex(9) != StatusNormal {
		t.Error("expected out-of-range index to default to normal")
	}
}
