package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

// HandleCategoryDELETE removes a category, detaching its transactions.
func HandleCategoryDELETE(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			badRequest(c, "invalid_category_id")
			return
		}
		err = store.DeleteCategory(c.Request.Context(), id)
		if errors.Is(err, pgstore.ErrNotFound) {
			notFound(c, "category_not_found")
			return
		}
		if err != nil {
			serverErr(c, "failed_to_delete_category")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
