package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connelaide/connelaide-api/auth0"
)

// HandleAdminUserGET looks a user up in the Auth0 Management API. Requires
// the read:users permission and configured machine-to-machine credentials.
func HandleAdminUserGET(mgmt *auth0.ManagementClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mgmt == nil {
			c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "management_api_not_configured"})
			return
		}
		user, err := mgmt.GetUser(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			serverErr(c, "failed_to_get_user")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": user})
	}
}
