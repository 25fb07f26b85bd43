package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// RefreshKeyPlaidTransactions is the refresh_metadata key for the Plaid
// transaction pull.
const RefreshKeyPlaidTransactions = "plaid_transactions"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("pgstore: not found")

// Store provides the domain queries for request handlers and jobs.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store { return &Store{db: db} }

// TransactionFilter narrows ListTransactions. Zero values are ignored.
type TransactionFilter struct {
	StartDate  string
	EndDate    string
	CategoryID int64
	Account    string
	Limit      int
	Offset     int
}

// ListTransactions returns transactions newest-first.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	var out []Transaction
	q := s.db.NewSelect().Model(&out).Relation("Category").Order("date DESC", "id DESC")
	if f.StartDate != "" {
		q = q.Where("t.date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("t.date <= ?", f.EndDate)
	}
	if f.CategoryID != 0 {
		q = q.Where("t.connelaide_category_id = ?", f.CategoryID)
	}
	if f.Account != "" {
		q = q.Where("t.account_name = ?", f.Account)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if err := q.Limit(limit).Offset(f.Offset).Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionUpdate carries the user-editable transaction fields; nil
// pointers leave the column untouched.
type TransactionUpdate struct {
	ConnelaideCategoryID   *int64
	EditedAmount           *float64
	Note                   *string
	ImpactsCheckingBalance *string
}

// UpdateTransaction applies a partial edit and returns the updated row.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, upd TransactionUpdate) (*Transaction, error) {
	now := time.Now()
	q := s.db.NewUpdate().Model((*Transaction)(nil)).
		Set("updated_at = ?", now).
		Where("id = ?", id)
	if upd.ConnelaideCategoryID != nil {
		q = q.Set("connelaide_category_id = ?", *upd.ConnelaideCategoryID)
	}
	if upd.EditedAmount != nil {
		q = q.Set("edited_amount = ?", *upd.EditedAmount)
	}
	if upd.Note != nil {
		q = q.Set("note = ?", *upd.Note)
	}
	if upd.ImpactsCheckingBalance != nil {
		q = q.Set("impacts_checking_balance = ?", *upd.ImpactsCheckingBalance)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	var txn Transaction
	if err := s.db.NewSelect().Model(&txn).Relation("Category").Where("t.id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return &txn, nil
}

// InsertTransactions bulk-inserts, skipping rows whose transaction_id
// already exists.
func (s *Store) InsertTransactions(ctx context.Context, txns []Transaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	res, err := s.db.NewInsert().Model(&txns).
		On("CONFLICT (transaction_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.db.NewSelect().Model(&out).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory inserts a category; duplicate names surface the database
// unique-violation to the handler.
func (s *Store) CreateCategory(ctx context.Context, c *Category) error {
	_, err := s.db.NewInsert().Model(c).Exec(ctx)
	return err
}

// DeleteCategory removes a category after detaching any transactions that
// reference it.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model((*Transaction)(nil)).
			Set("connelaide_category_id = NULL").
			Where("connelaide_category_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*Category)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetRefreshMetadata looks up the last-refreshed marker for a source key.
func (s *Store) GetRefreshMetadata(ctx context.Context, key string) (*RefreshMetadata, error) {
	var m RefreshMetadata
	err := s.db.NewSelect().Model(&m).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// TouchRefreshMetadata upserts the last-refreshed marker.
func (s *Store) TouchRefreshMetadata(ctx context.Context, key string, at time.Time) error {
	m := &RefreshMetadata{Key: key, LastRefreshedAt: at}
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (key) DO UPDATE").
		Set("last_refreshed_at = EXCLUDED.last_refreshed_at").
		Set("updated_at = now()").
		Exec(ctx)
	return err
}

// ListPayPeriods returns pay periods newest-first.
func (s *Store) ListPayPeriods(ctx context.Context) ([]PayPeriod, error) {
	var out []PayPeriod
	if err := s.db.NewSelect().Model(&out).Order("start_date DESC").Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecurringExpenses returns active recurring expenses.
func (s *Store) ListRecurringExpenses(ctx context.Context) ([]RecurringExpense, error) {
	var out []RecurringExpense
	if err := s.db.NewSelect().Model(&out).Where("is_active").Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProjectedExpenses returns projected expenses on or after the date.
func (s *Store) ListProjectedExpenses(ctx context.Context, from string) ([]ProjectedExpense, error) {
	var out []ProjectedExpense
	q := s.db.NewSelect().Model(&out).Order("date ASC")
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
