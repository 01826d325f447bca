package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRecentLimit is how many transactions the recent-activity feed shows
const DefaultRecentLimit = 5

// DashboardSnapshot is the aggregated view of one user's transactions over a period.
// It is computed per request and never stored.
type DashboardSnapshot struct {
	Balance            decimal.Decimal
	TotalIncome        decimal.Decimal
	TotalExpense       decimal.Decimal
	MonthlySeries      []MonthlyPoint
	ExpenseByCategory  []CategoryTotal
	IncomeByCategory   []CategoryTotal
	RecentTransactions []RecentTransaction
	Period             Period
}

// EmptySnapshot returns a snapshot with zero totals and empty, non-nil collections
func EmptySnapshot() *DashboardSnapshot {
	return &DashboardSnapshot{
		Balance:            decimal.Zero,
		TotalIncome:        decimal.Zero,
		TotalExpense:       decimal.Zero,
		MonthlySeries:      []MonthlyPoint{},
		ExpenseByCategory:  []CategoryTotal{},
		IncomeByCategory:   []CategoryTotal{},
		RecentTransactions: []RecentTransaction{},
	}
}

// MonthlyPoint is the income and expense of one calendar month
type MonthlyPoint struct {
	Month   string // MM/YYYY
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// CategoryTotal is the number and sum of transactions of one category
type CategoryTotal struct {
	Category string
	Count    int64
	Total    decimal.Decimal
}

// RecentTransaction is one entry of the recent-activity feed
type RecentTransaction struct {
	ID          int32
	Description string
	Kind        Kind
	Amount      decimal.Decimal
	Date        time.Time
	CreatedAt   time.Time
}

// KindTotals holds the summed amounts per kind
type KindTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// MonthBucket is a raw per-month aggregate as read from storage.
// FirstDate is the earliest occurrence date inside the month and drives ordering.
type MonthBucket struct {
	MonthStart time.Time
	FirstDate  time.Time
	Income     decimal.Decimal
	Expense    decimal.Decimal
}

// DashboardRepository runs the read-only aggregate queries behind the dashboard.
// A zero Period means no date filter.
type DashboardRepository interface {
	SumByKind(ctx context.Context, userID int32, period Period) (KindTotals, error)
	MonthlyBuckets(ctx context.Context, userID int32, period Period) ([]MonthBucket, error)
	CategoryTotals(ctx context.Context, userID int32, kind Kind, period Period) ([]CategoryTotal, error)
	RecentTransactions(ctx context.Context, userID int32, period Period, limit int) ([]RecentTransaction, error)
}
