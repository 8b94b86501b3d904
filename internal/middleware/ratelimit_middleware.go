package middleware

import (
	"net/http"
	"strconv"

	"lost-persons/internal/metrics"
	"lost-persons/internal/redis"
	"lost-persons/internal/services"
	"lost-persons/internal/transport/httpdto"
	"lost-persons/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthRateLimitMiddleware limits auth attempts per client IP. A nil limiter disables it.
func AuthRateLimitMiddleware(limiter *redis.RateLimiter, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		result, err := limiter.AllowAuth(c.Request.Context(), c.ClientIP())
		if !admit(c, "auth", result, err, l) {
			return
		}
		c.Next()
	}
}

// MessageRateLimitMiddleware limits message sends per user.
// Should be applied to message endpoints after auth middleware
func MessageRateLimitMiddleware(limiter *redis.RateLimiter, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c.Request.Context())
		if limiter == nil || !ok {
			c.Next()
			return
		}
		result, err := limiter.AllowMessage(c.Request.Context(), userID.String())
		if !admit(c, "message", result, err, l) {
			return
		}
		c.Next()
	}
}

// admit fails open when redis is unreachable.
func admit(c *gin.Context, scope string, result *redis.RateLimitResult, err error, l *logger.Logger) bool {
	if err != nil {
		if l != nil {
			l.Ctx(c.Request.Context()).Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
		}
		return true
	}

	setRateLimitHeaders(c, result)
	if !result.Allowed {
		metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
		return false
	}
	return true
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
