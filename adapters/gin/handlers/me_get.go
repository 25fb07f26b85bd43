package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authgin "github.com/connelaide/connelaide-api/adapters/gin"
)

// HandleMeGET echoes the verified identity for the frontend session view.
func HandleMeGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := authgin.CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": id})
	}
}
