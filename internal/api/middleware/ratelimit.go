package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/forceweaver/orghealth/internal/core"
)

var tierLimits = map[string]rate.Limit{
	"free":       rate.Limit(0.2), // 12 requests per minute
	"pro":        rate.Limit(1),
	"enterprise": rate.Limit(5),
}

const defaultBurst = 5

// RateLimiter throttles per API key. Limiters are kept in memory; a restart
// resets the buckets, which is acceptable for the request rates involved.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (r *RateLimiter) limiterFor(keyID, tier string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lim, ok := r.limiters[keyID]; ok {
		return lim
	}
	limit, ok := tierLimits[tier]
	if !ok {
		limit = tierLimits["free"]
	}
	lim := rate.NewLimiter(limit, defaultBurst)
	r.limiters[keyID] = lim
	return lim
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextAPIKey)
		if !exists {
			c.Next()
			return
		}
		key := value.(*core.APIKey)

		if !r.limiterFor(key.ID.String(), key.RateLimitTier).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"hint":  "slow down or upgrade the key's rate limit tier",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
