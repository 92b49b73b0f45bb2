package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/auth"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Name        string `json:"name" binding:"required"`
	ApartmentID string `json:"apartmentId" binding:"required"`
}

// Register creates an account and provisions the apartment's cards.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	sess, err := h.accounts.Register(c.Request.Context(), auth.Registration{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		ApartmentID: req.ApartmentID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	sess, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout records the event. Tokens are stateless and expire on their own.
func (h *Handler) Logout(c *gin.Context) {
	h.accounts.Logout(currentUser(c))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh issues a new token for the caller.
func (h *Handler) Refresh(c *gin.Context) {
	sess, err := h.accounts.Refresh(currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}
