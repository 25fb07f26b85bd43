package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

type seedCategory struct {
	name   string
	budget float64
}

var seedCategories = []seedCategory{
	{"Groceries", 400},
	{"Rent", 1500},
	{"Utilities", 200},
	{"Entertainment", 150},
	{"Transportation", 100},
}

type seedTxn struct {
	name    string
	amount  float64
	cat     string
	daysAgo int
	impacts string
}

var seedTxns = []seedTxn{
	{"Whole Foods", -85.32, "Groceries", 1, "true"},
	{"Kroger", -62.18, "Groceries", 3, "true"},
	{"Trader Joe's", -47.90, "Groceries", 7, "true"},
	{"Aldi", -33.55, "Groceries", 12, "review_required"},
	{"Costco", -128.40, "Groceries", 18, "true"},
	{"Rent Payment", -1500.00, "Rent", 1, "true"},
	{"Electric Company", -95.00, "Utilities", 5, "true"},
	{"Water Bill", -45.00, "Utilities", 10, "true"},
	{"Internet Service", -59.99, "Utilities", 8, "true"},
	{"Netflix", -15.99, "Entertainment", 2, "false"},
	{"Movie Theater", -24.00, "Entertainment", 14, "true"},
	{"Concert Tickets", -75.00, "Entertainment", 20, "review_required"},
	{"Spotify", -10.99, "Entertainment", 2, "false"},
	{"Gas Station", -42.50, "Transportation", 4, "true"},
	{"Uber Ride", -18.75, "Transportation", 9, "true"},
	{"Parking Garage", -12.00, "Transportation", 15, "true"},
	{"Oil Change", -55.00, "Transportation", 22, "true"},
}

// Seed populates the database with development fixtures. Idempotent: safe to
// run repeatedly.
func (s *Store) Seed(ctx context.Context, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	today := time.Now()

	catIDs := map[string]int64{}
	for _, sc := range seedCategories {
		c := &Category{Name: sc.name, TargetBudget: ptr(sc.budget)}
		if _, err := s.db.NewInsert().Model(c).
			On("CONFLICT (name) DO UPDATE").Set("name = EXCLUDED.name").
			Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		catIDs[sc.name] = c.ID
	}

	count, err := s.db.NewSelect().Model((*Transaction)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		txns := make([]Transaction, 0, len(seedTxns))
		for _, st := range seedTxns {
			catID := catIDs[st.cat]
			txns = append(txns, Transaction{
				TransactionID:          "seed-" + seedID(),
				AccountName:            "Checking",
				AccountID:              "seed-checking-001",
				Date:                   today.AddDate(0, 0, -st.daysAgo).Format("2006-01-02"),
				Name:                   st.name,
				Amount:                 st.amount,
				MerchantName:           ptr(st.name),
				PlaidGeneratedCategory: ptr(st.cat),
				ConnelaideCategoryID:   &catID,
				ImpactsCheckingBalance: st.impacts,
			})
		}
		if _, err := s.InsertTransactions(ctx, txns); err != nil {
			return fmt.Errorf("seed transactions: %w", err)
		}
		log.WithField("count", len(txns)).Info("seeded transactions")
	}

	count, err = s.db.NewSelect().Model((*PayPeriod)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		start, end := currentPayPeriod(today)
		pp := &PayPeriod{
			StartDate:      start.Format("2006-01-02"),
			EndDate:        end.Format("2006-01-02"),
			CheckingBudget: 2000,
		}
		if _, err := s.db.NewInsert().Model(pp).Exec(ctx); err != nil {
			return fmt.Errorf("seed pay period: %w", err)
		}
	}

	count, err = s.db.NewSelect().Model((*RecurringExpense)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		recurring := []RecurringExpense{
			{Name: "Rent", Amount: 1500, Frequency: "monthly", DayOfMonth: ptr(1),
				StartDate: firstOfMonth.AddDate(0, 0, -60).Format("2006-01-02"),
				ConnelaideCategoryID: ptr(catIDs["Rent"]), IsActive: true},
			{Name: "Netflix", Amount: 15.99, Frequency: "monthly", DayOfMonth: ptr(2),
				StartDate: firstOfMonth.AddDate(0, 0, -90).Format("2006-01-02"),
				ConnelaideCategoryID: ptr(catIDs["Entertainment"]), IsActive: true},
			{Name: "Internet", Amount: 59.99, Frequency: "monthly", DayOfMonth: ptr(8),
				StartDate: firstOfMonth.AddDate(0, 0, -120).Format("2006-01-02"),
				ConnelaideCategoryID: ptr(catIDs["Utilities"]), IsActive: true},
		}
		if _, err := s.db.NewInsert().Model(&recurring).Exec(ctx); err != nil {
			return fmt.Errorf("seed recurring expenses: %w", err)
		}
	}

	count, err = s.db.NewSelect().Model((*ProjectedExpense)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		projected := []ProjectedExpense{
			{Name: "Car Insurance", Amount: 120,
				Date: today.AddDate(0, 0, 5).Format("2006-01-02"),
				ConnelaideCategoryID: ptr(catIDs["Transportation"])},
			{Name: "Dentist Appointment", Amount: 80,
				Date: today.AddDate(0, 0, 10).Format("2006-01-02"),
				Note: ptr("Co-pay after insurance")},
			{Name: "Grocery Restock", Amount: 100,
				Date: today.AddDate(0, 0, 3).Format("2006-01-02"),
				ConnelaideCategoryID: ptr(catIDs["Groceries"])},
		}
		if _, err := s.db.NewInsert().Model(&projected).Exec(ctx); err != nil {
			return fmt.Errorf("seed projected expenses: %w", err)
		}
	}

	log.Info("seed complete")
	return nil
}

// currentPayPeriod returns the bi-weekly window containing now: the 1st-14th
// or the 15th-end-of-month.
func currentPayPeriod(now time.Time) (time.Time, time.Time) {
	if now.Day() >= 15 {
		start := time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
			AddDate(0, 1, -1)
		return start, end
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 13)
}

// seedID produces a short unique suffix for fixture transaction ids.
func seedID() string {
	u := uuid.New()
	return base58.Encode(u[:8])
}

func ptr[T any](v T) *T { return &v }
