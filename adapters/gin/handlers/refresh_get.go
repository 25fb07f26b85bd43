package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

// HandleRefreshStatusGET reports when the transaction feed was last pulled.
func HandleRefreshStatusGET(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta, err := store.GetRefreshMetadata(c.Request.Context(), pgstore.RefreshKeyPlaidTransactions)
		if errors.Is(err, pgstore.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"last_refreshed_at": nil})
			return
		}
		if err != nil {
			serverErr(c, "failed_to_get_refresh_status")
			return
		}
		c.JSON(http.StatusOK, gin.H{"last_refreshed_at": meta.LastRefreshedAt})
	}
}
