package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

// HandleTransactionsGET lists transactions, newest first, with optional
// date/category/account filters.
func HandleTransactionsGET(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		categoryID, _ := strconv.ParseInt(c.Query("category_id"), 10, 64)

		items, err := store.ListTransactions(c.Request.Context(), pgstore.TransactionFilter{
			StartDate:  c.Query("start_date"),
			EndDate:    c.Query("end_date"),
			CategoryID: categoryID,
			Account:    c.Query("account"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			serverErr(c, "failed_to_list_transactions")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items, "limit": limit, "offset": offset})
	}
}
