package models

type BuildingType int

const (
	BuildingEvacuationShelter BuildingType = iota
	BuildingEducationFacility
	BuildingGovernmentOffice
	BuildingSportsFacility
)

// MarkerStyle is what the map draws for a shelter marker.
type MarkerStyle struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var buildingLabels = map[BuildingType]string{
	BuildingEvacuationShelter: "Barak Evakuasi",
	BuildingEducationFacility: "Fasilitas Pendidikan",
	BuildingGovernmentOffice:  "Kantor Pemerintahan",
	BuildingSportsFacility:    "Fasilitas Olahraga",
}

var buildingColors = map[BuildingType]string{
	BuildingEvacuationShelter: "green",
	BuildingEducationFacility: "blue",
	BuildingGovernmentOffice:  "red",
	BuildingSportsFacility:    "purple",
}

// ParseBuildingType maps the API's tipe_bangunan label to a BuildingType.
// Labels must match exactly; anything else falls back to
// BuildingEvacuationShelter.
func ParseBuildingType(s string) BuildingType {
	for t, label := range buildingLabels {
		if label == s {
			return t
		}
	}
	return BuildingEvacuationShelter
}

func (t BuildingType) String() string {
	if label, ok := buildingLabels[t]; ok {
		return label
	}
	return buildingLabels[BuildingEvacuationShelter]
}

func (t BuildingType) Style() MarkerStyle {
	color, ok := buildingColors[t]
	if !ok {
		color = buildingColors[BuildingEvacuationShelter]
	}
	return MarkerStyle{Icon: "tent", Color: color}
}
