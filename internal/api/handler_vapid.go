package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/errs"
)

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		h.respondError(c, errs.New(errs.KindUnavailable, "push notifications are not configured"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": h.webpush.VAPIDPublicKey})
}
