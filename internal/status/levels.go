package status

import "github.com/mr1hm/siaga-merapi/internal/models"

// LevelInfo is the public guidance shown for a status level.
type LevelInfo struct {
	Level           models.StatusLevel `json:"status"`
	Index           int                `json:"level"`
	Label           string             `json:"label"`
	Color           string             `json:"color"`
	Description     string             `json:"description"`
	Details         []string           `json:"details"`
	Recommendations []string           `json:"recommendations"`
}

var levelInfo = map[models.StatusLevel]LevelInfo{
	models.StatusNormal: {
		Label:       "Normal",
		Color:       "green",
		Description: "Gunung Merapi dalam kondisi normal. Tidak ada tanda-tanda aktivitas vulkanik yang mengkhawatirkan.",
		Details: []string{
			"Aktivitas seismik rendah",
			"Suhu kawah dalam batas normal",
			"Tidak ada deformasi tanah yang signifikan",
			"Aman untuk aktivitas normal di zona hijau",
		},
		Recommendations: []string{
			"Tetap waspada dan ikuti informasi resmi",
			"Lakukan aktivitas normal seperti biasa",
			"Siapkan tas siaga sebagai antisipasi",
		},
	},
	models.StatusWaspada: {
		Label:       "Waspada",
		Color:       "yellow",
		Description: "Terjadi peningkatan aktivitas vulkanik. Masyarakat diminta tetap waspada dan mengikuti perkembangan.",
		Details: []string{
			"Peningkatan aktivitas seismik",
			"Suhu kawah mulai meningkat",
			"Terdeteksi deformasi tanah ringan",
			"Peningkatan emisi gas vulkanik",
		},
		Recommendations: []string{
			"Hindari area dalam radius 3 km dari puncak",
			"Siapkan tas siaga dan rencana evakuasi",
			"Pantau informasi resmi secara berkala",
			"Koordinasi dengan RT/RW setempat",
		},
	},
	models.StatusSiaga: {
		Label:       "Siaga",
		Color:       "orange",
		Description: "Aktivitas vulkanik meningkat signifikan. Masyarakat di zona bahaya diminta bersiap untuk evakuasi.",
		Details: []string{
			"Aktivitas seismik tinggi",
			"Suhu kawah meningkat drastis",
			"Deformasi tanah signifikan",
			"Peningkatan emisi gas berbahaya",
		},
		Recommendations: []string{
			"Evakuasi zona merah (radius 5 km)",
			"Siapkan tas siaga dan jalur evakuasi",
			"Hindari aktivitas di lereng gunung",
			"Ikuti arahan petugas BPBD",
			"Siapkan masker dan pakaian tertutup",
		},
	},
	models.StatusAwas: {
		Label:       "Awas",
		Color:       "red",
		Description: "Letusan dapat terjadi dalam 24 jam. Evakuasi segera untuk semua penduduk di zona bahaya.",
		Details: []string{
			"Aktivitas vulkanik sangat tinggi",
			"Tremor kontinyu terdeteksi",
			"Deformasi tanah ekstrem",
			"Emisi gas berbahaya maksimal",
		},
		Recommendations: []string{
			"Evakuasi total zona bahaya SEGERA",
			"Ikuti instruksi petugas BPBD",
			"Gunakan masker dan pakaian tertutup",
			"Hindari area terbuka",
			"Menuju shelter/pengungsian terdekat",
		},
	},
}

// Info returns the guidance for level; unknown levels get the normal entry.
func Info(level models.StatusLevel) LevelInfo {
	if !level.Valid() {
		level = models.StatusNormal
	}
	info := levelInfo[level]
	info.Level = level
	info.Index = level.Index()
	return info
}

// AllInfo lists the guidance for every level, lowest first.
func AllInfo() []LevelInfo {
	levels := models.StatusLevels()
	out := make([]LevelInfo, 0, len(levels))
	for _, l := range levels {
		out = append(out, Info(l))
	}
	return out
}
