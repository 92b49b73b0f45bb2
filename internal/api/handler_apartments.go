package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/store"
)

// ListApartments returns every apartment with its card counters.
func (h *Handler) ListApartments(c *gin.Context) {
	apts, err := h.building.ListApartments(c.Request.Context(), nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartments": apts, "total": len(apts)})
}

// ListApartmentsByFloor returns the apartments of one floor.
func (h *Handler) ListApartmentsByFloor(c *gin.Context) {
	floor, err := strconv.Atoi(c.Param("floor"))
	if err != nil || floor < 1 {
		h.respondError(c, errs.New(errs.KindValidation, "floor must be a positive number"))
		return
	}

	apts, err := h.building.ListApartments(c.Request.Context(), &floor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartments": apts, "floor": floor, "total": len(apts)})
}

// GetApartment returns one apartment with its cards.
func (h *Handler) GetApartment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	apt, err := h.building.GetApartment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apt})
}

type createApartmentRequest struct {
	Floor      int    `json:"floor" binding:"required,min=1,max=50"`
	UnitNumber string `json:"unitNumber" binding:"required,unitnumber"`
}

// CreateApartment creates an apartment and its three default cards.
func (h *Handler) CreateApartment(c *gin.Context) {
	var req createApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	apt, err := h.building.CreateApartment(c.Request.Context(), req.Floor, req.UnitNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"apartment": apt})
}

type updateApartmentRequest struct {
	Floor      *int    `json:"floor" binding:"omitempty,min=1,max=50"`
	UnitNumber *string `json:"unitNumber" binding:"omitempty,unitnumber"`
}

// UpdateApartment changes the floor or unit number of an apartment.
func (h *Handler) UpdateApartment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req updateApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	apt, err := h.building.UpdateApartment(c.Request.Context(), id, store.ApartmentPatch{
		Floor:      req.Floor,
		UnitNumber: req.UnitNumber,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apt})
}

// DeleteApartment removes an apartment, its cards and its command history.
func (h *Handler) DeleteApartment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.building.DeleteApartment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
