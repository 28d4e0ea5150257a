package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

// parseCriteria reads the shared shelter filter from the query string: q,
// kecamatan, desa, lat/lng and max_distance_km.
func parseCriteria(c *gin.Context) (spatial.Criteria, error) {
	user, err := parseLocation(c)
	if err != nil {
		return spatial.Criteria{}, err
	}

	criteria := spatial.Criteria{
		Text:         strings.TrimSpace(c.Query("q")),
		Region:       c.Query("kecamatan"),
		SubRegion:    c.Query("desa"),
		UserLocation: user,
	}
	if s := c.Query("max_distance_km"); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil || d < 0 {
			return spatial.Criteria{}, fmt.Errorf("invalid max_distance_km %q", s)
		}
		criteria.MaxDistanceKm = &d
	}
	return criteria, nil
}

// filteredShelters lists the snapshot and applies the query's filter. On
// failure the response has already been written.
func (h *Handler) filteredShelters(c *gin.Context) ([]models.Shelter, spatial.Criteria, bool) {
	criteria, err := parseCriteria(c)
	if err != nil {
		badRequest(c, err)
		return nil, spatial.Criteria{}, false
	}

	shelters, ok := h.listShelters(c)
	if !ok {
		return nil, spatial.Criteria{}, false
	}
	return spatial.Filter(shelters, criteria), criteria, true
}

func (h *Handler) getShelters(c *gin.Context) {
	shelters, criteria, ok := h.filteredShelters(c)
	if !ok {
		return
	}

	fc := toGeoJSON(shelters, criteria.UserLocation)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getShelter(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid shelter id %q", c.Param("id")))
		return
	}

	shelter, err := h.shelters.GetShelter(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch shelter"})
		return
	}
	if shelter == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shelter not found"})
		return
	}

	resp := gin.H{
		"shelter":  shelter,
		"building": shelter.Type().String(),
		"style":    shelter.Type().Style(),
	}
	if loc, ok := shelter.Location(); ok {
		risk := spatial.RiskOf(loc, spatial.HazardSource())
		risk.ShelterID = shelter.ID
		resp["risk"] = risk
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getRegions(c *gin.Context) {
	shelters, ok := h.listShelters(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kecamatan": spatial.Regions(shelters),
		"desa":      spatial.SubRegions(shelters, c.Query("kecamatan")),
	})
}

func (h *Handler) getNearest(c *gin.Context) {
	user, err := parseLocation(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if user == nil {
		badRequest(c, errPartialLocation)
		return
	}

	shelters, ok := h.listShelters(c)
	if !ok {
		return
	}

	nearest, found := spatial.Nearest(user, shelters)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no shelter with valid coordinates"})
		return
	}

	loc, _ := nearest.Shelter.Location()
	risk := spatial.RiskOf(loc, spatial.HazardSource())
	risk.ShelterID = nearest.Shelter.ID
	c.JSON(http.StatusOK, gin.H{
		"shelter":     nearest.Shelter,
		"distance_km": nearest.DistanceKm,
		"risk":        risk,
	})
}
