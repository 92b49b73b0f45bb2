package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/access"
	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/store"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
	dateLayout      = "2006-01-02"
)

type commandRequest struct {
	UnitNumber string `json:"unitNumber" binding:"required,unitnumber"`
	CardType   string `json:"cardType" binding:"required,cardtype"`
	Action     string `json:"action" binding:"required,action"`
}

// SendCommand authorizes an elevator command. Denied commands are still
// written to the ledger and their entry is returned with the error.
func (h *Handler) SendCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	res, err := h.authorizer.Authorize(c.Request.Context(), access.Command{
		UnitNumber: req.UnitNumber,
		CardType:   model.CardType(req.CardType),
		Action:     model.Action(req.Action),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if res.Allowed {
		c.JSON(http.StatusOK, res)
		return
	}

	var denial *errs.Error
	switch res.Reason {
	case model.ReasonCardNotFound:
		denial = errs.New(errs.KindCardNotFound, "card %s of unit %s does not exist", req.CardType, req.UnitNumber)
	default:
		denial = errs.New(errs.KindCardInactive, "card %s of unit %s is not active", req.CardType, req.UnitNumber)
	}
	_ = c.Error(denial)
	c.AbortWithStatusJSON(errs.HTTPStatus(denial.Kind), gin.H{
		"error":   denial.Kind,
		"message": denial.Message,
		"allowed": false,
		"entry":   res.Entry,
	})
}

// GetStatus reports the latest ledger entry and the overall counters.
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	latest, err := h.store.LatestEntry(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary, err := h.stats.Summary(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected": true,
		"lastEntry": latest,
		"summary":   summary,
	})
}

type pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Page   int   `json:"page"`
}

// GetLogs pages through the ledger, newest first.
func (h *Handler) GetLogs(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultLogLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if limit < 1 {
		h.respondError(c, errs.New(errs.KindValidation, "limit must be positive"))
		return
	}
	limit = min(limit, maxLogLimit)
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if offset < 0 {
		h.respondError(c, errs.New(errs.KindValidation, "offset must not be negative"))
		return
	}

	var filter store.LedgerFilter
	if unit := c.Query("unitNumber"); unit != "" {
		filter.UnitNumber = &unit
	}
	if filter.From, err = h.timeQuery(c, "fromTime", false); err != nil {
		h.respondError(c, err)
		return
	}
	if filter.To, err = h.timeQuery(c, "toTime", true); err != nil {
		h.respondError(c, err)
		return
	}

	entries, total, err := h.store.ListEntries(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"pagination": pagination{
			Total:  total,
			Limit:  limit,
			Offset: offset,
			Page:   offset/limit + 1,
		},
	})
}

// GetStats returns the detailed rollups for a lookback window.
func (h *Handler) GetStats(c *gin.Context) {
	days, err := intQuery(c, "lookbackDays", h.statsCfg.DefaultLookbackDays)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if days < 0 || days > h.statsCfg.MaxLookbackDays {
		h.respondError(c, errs.New(errs.KindValidation, "lookbackDays must be between 0 and %d", h.statsCfg.MaxLookbackDays))
		return
	}

	detailed, err := h.stats.Detailed(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detailed)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.New(errs.KindValidation, "%s must be an integer", key)
	}
	return v, nil
}

// timeQuery accepts RFC3339 or a bare date in the stats time zone. A bare
// date used as an upper bound covers the whole day.
func (h *Handler) timeQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	loc := h.statsCfg.Location
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, errs.New(errs.KindValidation, "%s must be RFC3339 or YYYY-MM-DD", key)
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	day = day.UTC()
	return &day, nil
}
