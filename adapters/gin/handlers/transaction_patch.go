package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

type transactionPatchBody struct {
	ConnelaideCategoryID   *int64   `json:"connelaide_category_id"`
	EditedAmount           *float64 `json:"edited_amount"`
	Note                   *string  `json:"note"`
	ImpactsCheckingBalance *string  `json:"impacts_checking_balance"`
}

var validImpacts = map[string]bool{"true": true, "false": true, "review_required": true}

// HandleTransactionPATCH applies the caller's manual edits to one
// transaction. Absent fields are left untouched.
func HandleTransactionPATCH(store *pgstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			badRequest(c, "invalid_transaction_id")
			return
		}
		var body transactionPatchBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid_body")
			return
		}
		if body.ImpactsCheckingBalance != nil && !validImpacts[*body.ImpactsCheckingBalance] {
			badRequest(c, "invalid_impacts_checking_balance")
			return
		}
		txn, err := store.UpdateTransaction(c.Request.Context(), id, pgstore.TransactionUpdate{
			ConnelaideCategoryID:   body.ConnelaideCategoryID,
			EditedAmount:           body.EditedAmount,
			Note:                   body.Note,
			ImpactsCheckingBalance: body.ImpactsCheckingBalance,
		})
		if errors.Is(err, pgstore.ErrNotFound) {
			notFound(c, "transaction_not_found")
			return
		}
		if err != nil {
			serverErr(c, "failed_to_update_transaction")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": txn})
	}
}
