package pgstore

import (
	"time"

	"github.com/uptrace/bun"
)

// Transaction is a financial transaction imported from Plaid, with the
// user's manual edits layered on top.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	TransactionID string `bun:"transaction_id,notnull,unique" json:"transaction_id"`
	AccountName   string `bun:"account_name,notnull" json:"account_name"`
	AccountID     string `bun:"account_id,notnull" json:"account_id"`
	// Date is the ISO transaction date as Plaid reports it.
	Date    string  `bun:"date,notnull" json:"date"`
	Name    string  `bun:"name,notnull" json:"name"`
	Amount  float64 `bun:"amount,notnull" json:"amount"`
	Pending bool    `bun:"pending,default:false" json:"pending"`

	MerchantName           *string  `bun:"merchant_name" json:"merchant_name,omitempty"`
	PlaidGeneratedCategory *string  `bun:"plaid_generated_category" json:"plaid_generated_category,omitempty"`
	ConnelaideCategoryID   *int64   `bun:"connelaide_category_id" json:"connelaide_category_id,omitempty"`
	EditedAmount           *float64 `bun:"edited_amount" json:"edited_amount,omitempty"`
	Note                   *string  `bun:"note" json:"note,omitempty"`
	// ImpactsCheckingBalance is "true", "false" or "review_required".
	ImpactsCheckingBalance string `bun:"impacts_checking_balance,default:'review_required'" json:"impacts_checking_balance"`

	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt *time.Time `bun:"updated_at" json:"updated_at,omitempty"`

	Category *Category `bun:"rel:belongs-to,join:connelaide_category_id=id" json:"category,omitempty"`
}

// Category is a user-defined budgeting category.
type Category struct {
	bun.BaseModel `bun:"table:connelaide_categories,alias:c"`

	ID           int64    `bun:"id,pk,autoincrement" json:"id"`
	Name         string   `bun:"name,notnull,unique" json:"name"`
	TargetBudget *float64 `bun:"target_budget" json:"target_budget,omitempty"`

	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt *time.Time `bun:"updated_at" json:"updated_at,omitempty"`
}

// RefreshMetadata tracks when an external data source was last pulled.
type RefreshMetadata struct {
	bun.BaseModel `bun:"table:refresh_metadata,alias:rm"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	Key             string    `bun:"key,notnull,unique" json:"key"`
	LastRefreshedAt time.Time `bun:"last_refreshed_at,notnull" json:"last_refreshed_at"`

	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt *time.Time `bun:"updated_at" json:"updated_at,omitempty"`
}

// PayPeriod is a bi-weekly budgeting window.
type PayPeriod struct {
	bun.BaseModel `bun:"table:pay_periods,alias:pp"`

	ID             int64   `bun:"id,pk,autoincrement" json:"id"`
	StartDate      string  `bun:"start_date,notnull" json:"start_date"`
	EndDate        string  `bun:"end_date,notnull" json:"end_date"`
	CheckingBudget float64 `bun:"checking_budget,notnull" json:"checking_budget"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// RecurringExpense is a known repeating charge used for projections.
type RecurringExpense struct {
	bun.BaseModel `bun:"table:recurring_expenses,alias:re"`

	ID                   int64   `bun:"id,pk,autoincrement" json:"id"`
	Name                 string  `bun:"name,notnull" json:"name"`
	Amount               float64 `bun:"amount,notnull" json:"amount"`
	Frequency            string  `bun:"frequency,notnull" json:"frequency"`
	DayOfMonth           *int    `bun:"day_of_month" json:"day_of_month,omitempty"`
	StartDate            string  `bun:"start_date,notnull" json:"start_date"`
	ConnelaideCategoryID *int64  `bun:"connelaide_category_id" json:"connelaide_category_id,omitempty"`
	IsActive             bool    `bun:"is_active,default:true" json:"is_active"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// ProjectedExpense is a one-off expected charge inside a pay period.
type ProjectedExpense struct {
	bun.BaseModel `bun:"table:projected_expenses,alias:pe"`

	ID                   int64   `bun:"id,pk,autoincrement" json:"id"`
	Name                 string  `bun:"name,notnull" json:"name"`
	Amount               float64 `bun:"amount,notnull" json:"amount"`
	Date                 string  `bun:"date,notnull" json:"date"`
	Note                 *string `bun:"note" json:"note,omitempty"`
	ConnelaideCategoryID *int64  `bun:"connelaide_category_id" json:"connelaide_category_id,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
