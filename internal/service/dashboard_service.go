package service

import (
	"context"
	"sort"

	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/util"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DashboardOptions tunes how a snapshot is assembled
type DashboardOptions struct {
	// RecentLimit caps the recent-activity feed. Non-positive means domain.DefaultRecentLimit.
	RecentLimit int
	// RecentFollowsPeriod restricts the recent feed to the selected period
	RecentFollowsPeriod bool
	// Concurrency bounds the parallel storage reads; 1 runs them one after another
	Concurrency int
}

// DashboardService aggregates a user's transactions into a dashboard snapshot
type DashboardService struct {
	repo domain.DashboardRepository
	opts DashboardOptions
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(repo domain.DashboardRepository, opts DashboardOptions) *DashboardService {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = domain.DefaultRecentLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &DashboardService{repo: repo, opts: opts}
}

// GetSnapshot computes totals, monthly series, category rollups and the recent
// feed for userID over period. Any storage failure aborts the whole snapshot.
func (s *DashboardService) GetSnapshot(ctx context.Context, userID int32, period domain.Period) (*domain.DashboardSnapshot, error) {
	var (
		totals  domain.KindTotals
		buckets []domain.MonthBucket
		expense []domain.CategoryTotal
		income  []domain.CategoryTotal
		recent  []domain.RecentTransaction
	)

	recentPeriod := domain.Period{}
	if s.opts.RecentFollowsPeriod {
		recentPeriod = period
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	g.Go(func() error {
		var err error
		totals, err = s.repo.SumByKind(gctx, userID, period)
		return err
	})
	g.Go(func() error {
		var err error
		buckets, err = s.repo.MonthlyBuckets(gctx, userID, period)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = s.repo.CategoryTotals(gctx, userID, domain.KindExpense, period)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = s.repo.CategoryTotals(gctx, userID, domain.KindIncome, period)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.RecentTransactions(gctx, userID, recentPeriod, s.opts.RecentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Int32("user_id", userID).Msg("Failed to aggregate dashboard")
		return nil, err
	}

	snapshot := domain.EmptySnapshot()
	snapshot.Period = period
	snapshot.TotalIncome = totals.Income
	snapshot.TotalExpense = totals.Expense
	snapshot.Balance = totals.Income.Sub(totals.Expense)
	snapshot.MonthlySeries = BuildMonthlySeries(buckets)
	snapshot.ExpenseByCategory = SortCategoryTotals(expense)
	snapshot.IncomeByCategory = SortCategoryTotals(income)
	if recent != nil {
		snapshot.RecentTransactions = recent
	}

	return snapshot, nil
}

// BuildMonthlySeries labels buckets as MM/YYYY and orders them by the earliest
// occurrence date inside each month, so series spanning years stay chronological.
func BuildMonthlySeries(buckets []domain.MonthBucket) []domain.MonthlyPoint {
	ordered := make([]domain.MonthBucket, len(buckets))
	copy(ordered, buckets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FirstDate.Before(ordered[j].FirstDate)
	})

	series := make([]domain.MonthlyPoint, 0, len(ordered))
	for _, b := range ordered {
		series = append(series, domain.MonthlyPoint{
			Month:   util.MonthLabel(b.MonthStart),
			Income:  b.Income,
			Expense: b.Expense,
		})
	}
	return series
}

// SortCategoryTotals orders totals descending by amount. Ties keep their input order.
func SortCategoryTotals(totals []domain.CategoryTotal) []domain.CategoryTotal {
	sorted := make([]domain.CategoryTotal, len(totals))
	copy(sorted, totals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total.GreaterThan(sorted[j].Total)
	})
	return sorted
}
