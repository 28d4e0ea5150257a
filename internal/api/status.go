package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/siaga-merapi/internal/backend"
	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/status"
)

const userKey = "user"

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse(h.status.Get()))
}

func (h *Handler) getStatusLevels(c *gin.Context) {
	c.JSON(http.StatusOK, status.AllInfo())
}

type statusRequest struct {
	Status models.StatusLevel `json:"status" binding:"required"`
}

func (h *Handler) putStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	st, err := h.status.Set(c.Request.Context(), req.Status)
	switch {
	case errors.Is(err, status.ErrInvalidLevel):
		badRequest(c, err)
		return
	case errors.Is(err, status.ErrUnchanged):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		slog.Error("failed to update status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}

	attrs := []any{"status", st.Level}
	if u, ok := c.Get(userKey); ok {
		attrs = append(attrs, "user", u.(*backend.User).Email)
	}
	slog.Info("volcano status updated", attrs...)

	c.JSON(http.StatusOK, statusResponse(st))
}

func statusResponse(st models.VolcanoStatus) gin.H {
	return gin.H{
		"status":    st.Level,
		"timestamp": st.UpdatedAt,
		"info":      status.Info(st.Level),
	}
}

// requireAuth checks the bearer token against the CRUD API. Tokens whose
// exp claim has already passed are rejected locally.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if backend.TokenExpired(token, time.Now()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}
		if h.auth == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication unavailable"})
			return
		}

		user, err := h.auth.Me(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, backend.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			slog.Error("failed to verify token", "error", err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not verify token"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}
