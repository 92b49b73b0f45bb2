package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription creates or replaces the caller's subscription for their
// unit's command alerts.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	user := currentUser(c)
	sub := model.PushSubscription{
		Endpoint:   req.Endpoint,
		P256DH:     req.P256DH,
		Auth:       req.Auth,
		UserID:     user.ID,
		UnitNumber: user.UnitNumber,
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), &sub); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"endpoint": sub.Endpoint, "unitNumber": sub.UnitNumber})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the caller's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	if _, err := h.ownSubscription(c, req.Endpoint); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam returns the undecoded value of key. Push endpoints carry
// escaped characters that must match the stored value byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription reports which unit a subscription of the caller follows.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		h.respondError(c, errs.New(errs.KindValidation, "endpoint is required"))
		return
	}

	sub, err := h.ownSubscription(c, raw)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"endpoint": sub.Endpoint, "unitNumber": sub.UnitNumber, "createdAt": sub.CreatedAt})
}

// ownSubscription loads a subscription and hides those of other users.
func (h *Handler) ownSubscription(c *gin.Context, endpoint string) (model.PushSubscription, error) {
	sub, err := h.store.GetSubscription(c.Request.Context(), endpoint)
	if err != nil {
		return model.PushSubscription{}, err
	}
	if sub.UserID != currentUser(c).ID {
		return model.PushSubscription{}, errs.New(errs.KindNotFound, "subscription not found")
	}
	return sub, nil
}
