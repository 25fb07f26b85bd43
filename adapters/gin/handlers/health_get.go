package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleRootGET answers the unauthenticated liveness probe.
func HandleRootGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "Connelaide API is running"})
	}
}

// HandleHealthGET answers the load balancer health check.
func HandleHealthGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
