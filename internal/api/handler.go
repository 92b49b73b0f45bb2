package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"elevator-access-backend/config"
	"elevator-access-backend/internal/access"
	"elevator-access-backend/internal/auth"
	"elevator-access-backend/internal/building"
	"elevator-access-backend/internal/stats"
	"elevator-access-backend/internal/store"
)

// Deps lists what the handlers are built from.
type Deps struct {
	Store      store.Store
	Accounts   *auth.Accounts
	Authorizer *access.Authorizer
	Stats      *stats.Aggregator
	Building   *building.Manager
	WebPush    *webpush.Options
	Config     *config.Config
	Logger     *zap.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	accounts   *auth.Accounts
	authorizer *access.Authorizer
	stats      *stats.Aggregator
	building   *building.Manager
	webpush    *webpush.Options
	statsCfg   config.StatsConfig
	logger     *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:      d.Store,
		accounts:   d.Accounts,
		authorizer: d.Authorizer,
		stats:      d.Stats,
		building:   d.Building,
		webpush:    d.WebPush,
		statsCfg:   d.Config.Stats,
		logger:     d.Logger.Named("api"),
	}
}
