package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"elevator-access-backend/config"
	"elevator-access-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, authenticator mw.Authenticator, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(mw.RequestLogger(logger), mw.Recovery(logger), corsMiddleware(cfg.Server.CORSOrigins))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	flush := mw.FlushCache(cacheStore)
	requireAuth := mw.RequireAuth(authenticator)

	r.GET("/", h.Index)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(rateLimiter)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", flush, h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", requireAuth, h.Logout)
		authGroup.POST("/refresh", requireAuth, h.Refresh)
		authGroup.GET("/me", requireAuth, h.Me)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("/profile", h.GetProfile)
		users.PUT("/update", h.UpdateProfile)
		users.DELETE("/delete", flush, h.DeleteAccount)
		users.GET("/stats", h.GetUserStats)
	}

	// Cached groups share one store; any successful write flushes it.
	apartments := api.Group("/apartments", requireAuth, caching)
	{
		apartments.GET("", h.ListApartments)
		apartments.POST("", h.CreateApartment)
		apartments.GET("/floor/:floor", h.ListApartmentsByFloor)
		apartments.GET("/:id", h.GetApartment)
		apartments.PUT("/:id", h.UpdateApartment)
		apartments.DELETE("/:id", h.DeleteApartment)
	}

	cards := api.Group("/cards", requireAuth, caching)
	{
		cards.GET("", h.ListCards)
		cards.POST("", h.CreateCard)
		cards.GET("/apartment/:apartmentId", h.ListApartmentCards)
		cards.GET("/:id", h.GetCard)
		cards.PUT("/:id", h.UpdateCard)
		cards.DELETE("/:id", h.DeleteCard)
		cards.POST("/:id/activate", h.ActivateCard)
		cards.POST("/:id/deactivate", h.DeactivateCard)
	}

	elevator := api.Group("/elevator", requireAuth)
	{
		elevator.POST("/command", flush, h.SendCommand)
		elevator.GET("/status", h.GetStatus)
		elevator.GET("/logs", h.GetLogs)
		elevator.GET("/stats", h.GetStats)
	}

	subs := api.Group("", requireAuth)
	{
		subs.GET("/subscriptions", h.GetSubscription)
		subs.PUT("/subscriptions", h.PutSubscription)
		subs.DELETE("/subscriptions", h.DeleteSubscription)
		subs.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "route not found"})
	})

	return r
}

// corsMiddleware adapts rs/cors to gin. Preflight requests are answered
// without reaching the handlers.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: true,
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusNoContent)
		}
	}
}
