package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

// HandleCategoriesGET lists all budgeting categories.
func HandleCategoriesGET(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := store.ListCategories(c.Request.Context())
		if err != nil {
			serverErr(c, "failed_to_list_categories")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	}
}
