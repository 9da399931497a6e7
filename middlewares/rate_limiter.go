package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/utils"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	perSecond rate.Limit
	burst     int
	idle      time.Duration
	visitors  map[string]*visitor
	mu        sync.Mutex
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond int, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 50
	}
	if burst <= 0 {
		burst = perSecond
	}
	return &RateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		idle:      10 * time.Minute,
		visitors:  make(map[string]*visitor),
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
		}
	}

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			utils.RespondJSON(c, http.StatusTooManyRequests, "Too many requests, slow down", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
