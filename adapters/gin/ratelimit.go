package authgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/connelaide/connelaide-api/ratelimit"
)

// RateLimit applies the named bucket keyed by the verified subject, falling
// back to client IP for unauthenticated routes. Limiter backend errors fail
// open: a Redis outage should degrade to unlimited, not to a dead API.
func RateLimit(l ratelimit.Limiter, bucket string, log logrus.FieldLogger) gin.HandlerFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := c.ClientIP()
		if id, ok := CurrentUser(c); ok {
			key = id.Subject
		}
		allowed, err := l.Allow(c.Request.Context(), bucket, key)
		if err != nil {
			log.WithError(err).WithField("component", "ratelimit").Warn("limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
			return
		}
		c.Next()
	}
}
