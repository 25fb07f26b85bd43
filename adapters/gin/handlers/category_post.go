package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

type categoryPostBody struct {
	Name         string   `json:"name" binding:"required,max=100"`
	TargetBudget *float64 `json:"target_budget"`
}

// HandleCategoryPOST creates a category.
func HandleCategoryPOST(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body categoryPostBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid_body")
			return
		}
		cat := &pgstore.Category{Name: strings.TrimSpace(body.Name), TargetBudget: body.TargetBudget}
		if cat.Name == "" {
			badRequest(c, "invalid_name")
			return
		}
		if err := store.CreateCategory(c.Request.Context(), cat); err != nil {
			// Unique violation on name lands here; keep the response generic.
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "category_exists"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": cat})
	}
}
