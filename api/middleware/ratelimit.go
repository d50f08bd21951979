package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"golang.org/x/time/rate"
)

// limiterPool hands out one token bucket per identity and evicts
// buckets that have gone quiet.
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	return &limiterPool{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
	}
}

func (p *limiterPool) get(identity string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.limiters[identity]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.limiters[identity] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// evictIdle drops every identity not seen since the cutoff and reports
// how many were dropped.
func (p *limiterPool) evictIdle(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	evicted := 0
	for id, entry := range p.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(p.limiters, id)
			evicted++
		}
	}
	return evicted
}

// RateLimit returns per-identity token-bucket rate limiting middleware.
// Identity is the API key set by the auth middleware, or the client IP
// when requests arrive unauthenticated.
//
// Idle identities are evicted after an hour by a background sweep, so
// the pool does not grow without bound.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			pool.evictIdle(time.Now().Add(-1 * time.Hour))
		}
	}()

	return func(c *gin.Context) {
		identity, exists := c.Get("api_key")
		if !exists {
			identity = c.ClientIP()
		}

		if !pool.get(identity.(string)).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
