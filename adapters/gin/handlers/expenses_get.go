package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

// HandleExpensesGET returns the active recurring expenses plus upcoming
// projected ones, the inputs to the pay-period budget view.
func HandleExpensesGET(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		recurring, err := store.ListRecurringExpenses(ctx)
		if err != nil {
			serverErr(c, "failed_to_list_expenses")
			return
		}
		from := c.DefaultQuery("from", time.Now().Format("2006-01-02"))
		projected, err := store.ListProjectedExpenses(ctx, from)
		if err != nil {
			serverErr(c, "failed_to_list_expenses")
			return
		}
		c.JSON(http.StatusOK, gin.H{"recurring": recurring, "projected": projected})
	}
}
