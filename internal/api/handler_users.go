package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/auth"
)

// GetProfile returns the caller's account.
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.accounts.Profile(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type updateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// UpdateProfile changes the caller's name, email or password.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), currentUser(c).ID, auth.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteAccount removes the caller with their apartment's cards and
// command history.
func (h *Handler) DeleteAccount(c *gin.Context) {
	user, err := h.accounts.DeleteAccount(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted", "email": user.Email})
}

// GetUserStats reports the caller's cards and the commands of their unit.
func (h *Handler) GetUserStats(c *gin.Context) {
	st, err := h.accounts.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": st})
}
