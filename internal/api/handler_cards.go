package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/parse"
	"elevator-access-backend/internal/store"
)

// ListCards returns every card.
func (h *Handler) ListCards(c *gin.Context) {
	cards, err := h.store.ListCards(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "total": len(cards)})
}

// ListApartmentCards returns the cards of one apartment identifier.
func (h *Handler) ListApartmentCards(c *gin.Context) {
	apartmentID := c.Param("apartmentId")
	if _, err := parse.UnitNumberFromApartmentID(apartmentID); err != nil {
		h.respondError(c, errs.Wrap(errs.KindValidation, err, "apartmentId must look like apt-201"))
		return
	}

	cards, err := h.store.ListCardsByApartment(c.Request.Context(), apartmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "apartmentId": apartmentID, "total": len(cards)})
}

// GetCard returns one card.
func (h *Handler) GetCard(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	card, err := h.store.GetCard(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

type createCardRequest struct {
	ApartmentID string `json:"apartmentId" binding:"required"`
	CardType    string `json:"cardType" binding:"required,cardtype"`
	Name        string `json:"name" binding:"required"`
}

// CreateCard adds an inactive card to an apartment. Each card type may
// exist once per apartment.
func (h *Handler) CreateCard(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	unit, err := parse.UnitNumberFromApartmentID(req.ApartmentID)
	if err != nil {
		h.respondError(c, errs.Wrap(errs.KindValidation, err, "apartmentId must look like apt-201"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.respondError(c, errs.New(errs.KindValidation, "name is required"))
		return
	}

	card := model.Card{
		ApartmentID: parse.ApartmentID(unit),
		UnitNumber:  unit,
		CardType:    model.CardType(req.CardType),
		Name:        name,
	}
	if err := h.store.CreateCard(c.Request.Context(), &card); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"card": card})
}

type updateCardRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1"`
	Active *bool   `json:"active"`
}

// UpdateCard renames a card or changes its active flag.
func (h *Handler) UpdateCard(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req updateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	if req.Name == nil && req.Active == nil {
		h.respondError(c, errs.New(errs.KindValidation, "provide at least one field to update"))
		return
	}

	card, err := h.store.UpdateCard(c.Request.Context(), id, store.CardPatch{Name: req.Name, Active: req.Active})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

// ActivateCard marks a card active.
func (h *Handler) ActivateCard(c *gin.Context) {
	h.setCardActive(c, true)
}

// DeactivateCard marks a card inactive.
func (h *Handler) DeactivateCard(c *gin.Context) {
	h.setCardActive(c, false)
}

func (h *Handler) setCardActive(c *gin.Context, active bool) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	card, err := h.store.SetCardActive(c.Request.Context(), id, active)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

// DeleteCard removes one card.
func (h *Handler) DeleteCard(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	card, err := h.store.DeleteCard(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "card deleted", "card": card})
}
