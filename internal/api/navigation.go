package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/navigation"
	"github.com/mr1hm/siaga-merapi/internal/routing"
)

type endpointsRequest struct {
	Start *models.Coordinates `json:"start"`
	End   *models.Coordinates `json:"end"`
}

func (h *Handler) createNavigation(c *gin.Context) {
	var req endpointsRequest
	// An empty body opens an idle session.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.navigation.Create(req.Start, req.End))
}

func (h *Handler) getNavigation(c *gin.Context) {
	view, err := h.navigation.Get(c.Param("id"))
	if err != nil {
		navigationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateNavigation(c *gin.Context) {
	var req endpointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.navigation.Update(c.Param("id"), req.Start, req.End)
	if err != nil {
		navigationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) navigateToNearest(c *gin.Context) {
	var user models.Coordinates
	if err := c.ShouldBindJSON(&user); err != nil {
		badRequest(c, err)
		return
	}

	shelters, ok := h.listShelters(c)
	if !ok {
		return
	}

	view, err := h.navigation.RouteToNearest(c.Param("id"), user, shelters)
	if err != nil {
		navigationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) cancelNavigation(c *gin.Context) {
	view, err := h.navigation.Cancel(c.Param("id"))
	if err != nil {
		navigationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) retryNavigation(c *gin.Context) {
	view, err := h.navigation.Retry(c.Param("id"))
	if err != nil {
		navigationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) deleteNavigation(c *gin.Context) {
	if err := h.navigation.Delete(c.Param("id")); err != nil {
		navigationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func navigationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, navigation.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, navigation.ErrNoShelter):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, routing.ErrInvalidCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"message": routing.UserMessage(err),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "navigation failed"})
	}
}
