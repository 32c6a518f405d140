package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
	"github.com/iamfafakkk/minimalFreeRadius/internal/metrics"
	"github.com/iamfafakkk/minimalFreeRadius/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

type rateLimitBody struct {
	response.Envelope
	RetryAfter int `json:"retry_after"`
}

// RateLimit counts requests per client IP and rejects callers over the ceiling with 429.
// It sets the RateLimit-Limit, RateLimit-Remaining and RateLimit-Reset headers.
func RateLimit(manager *ratelimit.Manager, m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !manager.Enabled() {
			c.Next()
			return
		}
		result, errAllow := manager.Allow(c.Request.Context(), c.ClientIP())
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit check failed")
			c.Next()
			return
		}
		now := manager.Now()
		resetSeconds := int(math.Ceil(result.Reset.Sub(now).Seconds()))
		if resetSeconds < 0 {
			resetSeconds = 0
		}
		c.Header("RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(resetSeconds))
		if result.Allowed {
			c.Next()
			return
		}
		retryAfter := int(result.RetryAfter(now).Seconds())
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		m.RateLimited()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, rateLimitBody{
			Envelope: response.Envelope{
				Success: false,
				Message: "Too many requests from this IP, please try again later.",
			},
			RetryAfter: retryAfter,
		})
	}
}
