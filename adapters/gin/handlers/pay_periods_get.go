package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

// HandlePayPeriodsGET lists budgeting windows, newest first.
func HandlePayPeriodsGET(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := store.ListPayPeriods(c.Request.Context())
		if err != nil {
			serverErr(c, "failed_to_list_pay_periods")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	}
}
