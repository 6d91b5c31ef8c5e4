// internal/middleware/rate_limit_middleware.go
package middleware

import (
	"net/http"

	"referral-service/internal/pkg/ratelimit"
	"referral-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware throttles the public redemption endpoint per client IP.
// When Redis is unavailable the request passes; rejections must come from the
// counter, not from counter downtime.
func RateLimitMiddleware(limiter *ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, "too many redemption attempts, try again later", nil, map[string]interface{}{
				"remaining": remaining,
			})
			return
		}

		c.Next()
	}
}
