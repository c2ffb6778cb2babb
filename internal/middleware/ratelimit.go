package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockdash/internal/logger"
	"github.com/guttosm/stockdash/internal/ratelimit"
)

// RateLimiter limits requests per client IP using the given store.
//
// A nil store disables limiting. When the store itself fails (e.g. Redis is
// unreachable) the request is let through and the failure is logged.
//
// Response when limit exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{"error": "rate limit exceeded", "timestamp": "..."}
func RateLimiter(store ratelimit.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}

		ok, err := store.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Ctx(c.Request.Context()).Warn().Err(err).Msg("rate limit store unavailable; allowing request")
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", "60")
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}

		c.Next()
	}
}
