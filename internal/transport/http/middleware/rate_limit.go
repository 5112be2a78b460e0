package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/core/port"
	"github.com/authline/authline/internal/infra/logger"
)

// RateLimiter enforces a per-client sliding window over a shared store.
// Store failures fail open: a broken Redis must not take logins down with it.
type RateLimiter struct {
	store       port.RateLimitStore
	window      time.Duration
	maxRequests int
	log         *zap.Logger
	now         func() time.Time
}

// NewRateLimiter builds the limiter middleware.
func NewRateLimiter(store port.RateLimitStore, window time.Duration, maxRequests int, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		store:       store,
		window:      window,
		maxRequests: maxRequests,
		log:         log,
		now:         time.Now,
	}
}

// WithClock overrides the limiter clock. Intended for tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// Handler rejects requests over the window budget with 429.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.ClientIP()
		now := rl.now()

		if err := rl.store.TrimWindow(c.Request.Context(), identifier, rl.window, now); err != nil {
			rl.log.Error("rate limit trim failed", zap.Error(err))
			c.Next()
			return
		}

		count, err := rl.store.CountAttempts(c.Request.Context(), identifier, rl.window, now)
		if err != nil {
			rl.log.Error("rate limit count failed", zap.Error(err))
			c.Next()
			return
		}

		if count >= rl.maxRequests {
			retryAfter := rl.window
			if oldest, ok, err := rl.store.OldestAttempt(c.Request.Context(), identifier, rl.window, now); err == nil && ok {
				retryAfter = oldest.Add(rl.window).Sub(now)
				if retryAfter < time.Second {
					retryAfter = time.Second
				}
			}

			rl.log.Warn("rate limit exceeded",
				zap.String("client_ip", logger.MaskIP(identifier)),
				zap.Int("count", count),
			)

			c.Header("Retry-After", retryAfter.Truncate(time.Second).String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many requests, slow down",
			})
			return
		}

		if err := rl.store.RecordAttempt(c.Request.Context(), identifier, now); err != nil {
			rl.log.Error("rate limit record failed", zap.Error(err))
		}

		c.Next()
	}
}
