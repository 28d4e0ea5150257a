package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/siaga-merapi/internal/backend"
	"github.com/mr1hm/siaga-merapi/internal/ingestion"
	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/navigation"
	"github.com/mr1hm/siaga-merapi/internal/observability"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

// ShelterReader reads the latest synced shelter snapshot.
type ShelterReader interface {
	ListShelters(ctx context.Context) ([]models.Shelter, error)
	GetShelter(ctx context.Context, id int64) (*models.Shelter, error)
}

type StatusStore interface {
	Get() models.VolcanoStatus
	Set(ctx context.Context, level models.StatusLevel) (models.VolcanoStatus, error)
}

// Authenticator resolves a bearer token to the CRUD API user.
type Authenticator interface {
	Me(ctx context.Context, token string) (*backend.User, error)
}

type SyncReporter interface {
	LastSync() *ingestion.SyncResult
}

type Deps struct {
	Shelters   ShelterReader
	Status     StatusStore
	Auth       Authenticator
	Sync       SyncReporter
	Navigation *navigation.Manager

	LayersDir       string
	CoverageRadiusM float64
}

type Handler struct {
	shelters   ShelterReader
	status     StatusStore
	auth       Authenticator
	sync       SyncReporter
	navigation *navigation.Manager

	layersDir       string
	coverageRadiusM float64
}

func NewHandler(d Deps) *Handler {
	radius := d.CoverageRadiusM
	if radius <= 0 {
		radius = spatial.DefaultServiceRadiusM
	}
	return &Handler{
		shelters:        d.Shelters,
		status:          d.Status,
		auth:            d.Auth,
		sync:            d.Sync,
		navigation:      d.Navigation,
		layersDir:       d.LayersDir,
		coverageRadiusM: radius,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	api := r.Group("/api")
	api.GET("/shelters", h.getShelters)
	api.GET("/shelters/:id", h.getShelter)
	api.GET("/regions", h.getRegions)
	api.GET("/nearest", h.getNearest)
	api.GET("/layers/:name", h.getLayer)

	analysis := api.Group("/analysis")
	analysis.GET("/risk", h.getRisk)
	analysis.GET("/coverage", h.getCoverage)
	analysis.GET("/capacity", h.getCapacity)
	analysis.GET("/heatmap", h.getHeatmap)

	api.GET("/status", h.getStatus)
	api.GET("/status/levels", h.getStatusLevels)
	api.PUT("/status", h.requireAuth(), h.putStatus)

	nav := api.Group("/navigation")
	nav.POST("", h.createNavigation)
	nav.GET("/:id", h.getNavigation)
	nav.PUT("/:id", h.updateNavigation)
	nav.DELETE("/:id", h.deleteNavigation)
	nav.POST("/:id/nearest", h.navigateToNearest)
	nav.POST("/:id/cancel", h.cancelNavigation)
	nav.POST("/:id/retry", h.retryNavigation)
}

func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.sync != nil {
		if last := h.sync.LastSync(); last != nil {
			sync := gin.H{
				"finished_at": last.FinishedAt,
				"fetched":     last.Fetched,
				"upserted":    last.Upserted,
				"failed":      last.Failed,
				"pruned":      last.Pruned,
			}
			if last.Err != "" {
				sync["error"] = last.Err
			}
			resp["last_sync"] = sync
		}
	}
	if h.navigation != nil {
		resp["navigation_sessions"] = h.navigation.Count()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listShelters(c *gin.Context) ([]models.Shelter, bool) {
	shelters, err := h.shelters.ListShelters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch shelters",
		})
		return nil, false
	}
	return shelters, true
}

var errPartialLocation = errors.New("lat and lng must be given together")

// parseLocation reads an optional lat/lng query pair. Both absent yields nil.
func parseLocation(c *gin.Context) (*models.Coordinates, error) {
	latStr, lngStr := strings.TrimSpace(c.Query("lat")), strings.TrimSpace(c.Query("lng"))
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errPartialLocation
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", latStr)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lng %q", lngStr)
	}

	loc := &models.Coordinates{Latitude: lat, Longitude: lng}
	if !loc.Valid() {
		return nil, fmt.Errorf("coordinates out of range: %v,%v", lat, lng)
	}
	return loc, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
