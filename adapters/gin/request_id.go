package authgin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

const requestIDKey = "request.id"

// RequestID attaches a short base58 request id to every request and echoes
// it in the X-Request-ID response header. Inbound ids are preserved so load
// balancer traces line up with application logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			u := uuid.New()
			id = base58.Encode(u[:])
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// GetRequestID returns the id attached by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
