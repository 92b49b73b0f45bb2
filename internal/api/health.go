package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Health reports whether the process and its database are reachable.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	now := time.Now().UTC()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unavailable",
			"database":  "down",
			"timestamp": now,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  "up",
		"timestamp": now,
	})
}

// Index lists the API's route groups.
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "elevator-access-backend",
		"endpoints": gin.H{
			"health":        "/health",
			"auth":          "/api/auth",
			"users":         "/api/users",
			"apartments":    "/api/apartments",
			"cards":         "/api/cards",
			"elevator":      "/api/elevator",
			"subscriptions": "/api/subscriptions",
		},
	})
}
