package mw

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"elevator-access-backend/internal/errs"
)

// ClientIdleTTL is how long a client's token bucket survives without
// requests before it is evicted.
const ClientIdleTTL = 10 * time.Minute

// ClientLimiters hands out one token bucket per client address. Buckets
// live in a go-cache with a sliding expiry, so quiet clients are dropped
// by the janitor instead of accumulating forever.
type ClientLimiters struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
}

// NewClientLimiters creates a limiter set refilling at limit with the given
// burst. Buckets idle for longer than idle are evicted.
func NewClientLimiters(limit rate.Limit, burst int, idle time.Duration) *ClientLimiters {
	return &ClientLimiters{
		buckets: cache.New(idle, idle),
		limit:   limit,
		burst:   burst,
	}
}

// Allow reports whether client may make a request now and consumes a
// token when it may.
func (l *ClientLimiters) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	var bucket *rate.Limiter
	if v, ok := l.buckets.Get(client); ok {
		bucket = v.(*rate.Limiter)
	} else {
		bucket = rate.NewLimiter(l.limit, l.burst)
	}
	// Re-setting refreshes the expiry.
	l.buckets.SetDefault(client, bucket)
	return bucket.Allow()
}

// Clients returns the number of tracked clients, expired ones included
// until the janitor runs.
func (l *ClientLimiters) Clients() int {
	return l.buckets.ItemCount()
}

// RateLimiter rejects requests from a client address once its bucket is
// empty.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	return ClientRateLimiter(NewClientLimiters(r, b, ClientIdleTTL))
}

// ClientRateLimiter is RateLimiter over an existing limiter set.
func ClientRateLimiter(limiters *ClientLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiters.Allow(c.ClientIP()) {
			AbortWithError(c, errs.New(errs.KindRateLimited, "too many requests, try again later"))
			return
		}
		c.Next()
	}
}
