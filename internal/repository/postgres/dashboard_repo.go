package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moremoney/moremoney-backend/internal/domain"
)

// DashboardRepository implements domain.DashboardRepository using PostgreSQL.
// Sums are computed by the database on NUMERIC columns.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// withPeriod restricts the data column of a query to a half-open period
func withPeriod(b sq.SelectBuilder, column string, period domain.Period) sq.SelectBuilder {
	if period.Start != nil {
		b = b.Where(sq.GtOrEq{column: pgDate(*period.Start)})
	}
	if period.End != nil {
		b = b.Where(sq.Lt{column: pgDate(*period.End)})
	}
	return b
}

func sumKindExpr(column string, kind domain.Kind, alias string) sq.Sqlizer {
	return sq.Expr(
		fmt.Sprintf("COALESCE(SUM(CASE WHEN tipo = ? THEN %s ELSE 0 END), 0) AS %s", column, alias),
		string(kind),
	)
}

func sumByKindQuery(userID int32, period domain.Period) sq.SelectBuilder {
	b := psql.Select().
		Column(sumKindExpr("valor", domain.KindIncome, "receitas")).
		Column(sumKindExpr("valor", domain.KindExpense, "despesas")).
		From("lancamentos").
		Where(sq.Eq{"usuario_id": userID})
	return withPeriod(b, "data", period)
}

func monthlyBucketsQuery(userID int32, period domain.Period) sq.SelectBuilder {
	b := psql.Select("date_trunc('month', data)::date AS mes", "MIN(data) AS primeira_data").
		Column(sumKindExpr("valor", domain.KindIncome, "receitas")).
		Column(sumKindExpr("valor", domain.KindExpense, "despesas")).
		From("lancamentos").
		Where(sq.Eq{"usuario_id": userID})
	return withPeriod(b, "data", period).
		GroupBy("mes").
		OrderBy("primeira_data ASC")
}

func categoryTotalsQuery(userID int32, kind domain.Kind, period domain.Period) sq.SelectBuilder {
	b := psql.Select("c.nome", "COUNT(l.id) AS quantidade", "COALESCE(SUM(l.valor), 0) AS total").
		From("lancamentos l").
		Join("categorias c ON c.id = l.categoria_id").
		Where(sq.Eq{"l.usuario_id": userID, "l.tipo": string(kind)})
	return withPeriod(b, "l.data", period).
		GroupBy("c.nome").
		OrderBy("total DESC", "c.nome ASC")
}

func recentTransactionsQuery(userID int32, period domain.Period, limit int) sq.SelectBuilder {
	b := psql.Select("id", "descricao", "tipo", "valor", "data", "criado_em").
		From("lancamentos").
		Where(sq.Eq{"usuario_id": userID})
	return withPeriod(b, "data", period).
		OrderBy("data DESC", "id DESC").
		Limit(uint64(limit))
}

// SumByKind returns total income and total expense over the period
func (r *DashboardRepository) SumByKind(ctx context.Context, userID int32, period domain.Period) (domain.KindTotals, error) {
	query, args, err := sumByKindQuery(userID, period).ToSql()
	if err != nil {
		return domain.KindTotals{}, err
	}

	var income, expense pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&income, &expense); err != nil {
		return domain.KindTotals{}, fmt.Errorf("sum by kind: %w", err)
	}

	return domain.KindTotals{
		Income:  pgNumericToDecimal(income),
		Expense: pgNumericToDecimal(expense),
	}, nil
}

// MonthlyBuckets returns one bucket per calendar month with any activity in the period
func (r *DashboardRepository) MonthlyBuckets(ctx context.Context, userID int32, period domain.Period) ([]domain.MonthBucket, error) {
	query, args, err := monthlyBucketsQuery(userID, period).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly buckets: %w", err)
	}
	defer rows.Close()

	buckets := make([]domain.MonthBucket, 0)
	for rows.Next() {
		var (
			monthStart, firstDate time.Time
			income, expense       pgtype.Numeric
		)
		if err := rows.Scan(&monthStart, &firstDate, &income, &expense); err != nil {
			return nil, err
		}
		buckets = append(buckets, domain.MonthBucket{
			MonthStart: monthStart,
			FirstDate:  firstDate,
			Income:     pgNumericToDecimal(income),
			Expense:    pgNumericToDecimal(expense),
		})
	}

	return buckets, rows.Err()
}

// CategoryTotals returns count and sum per category name for one kind.
// Transactions without a category are left out.
func (r *DashboardRepository) CategoryTotals(ctx context.Context, userID int32, kind domain.Kind, period domain.Period) ([]domain.CategoryTotal, error) {
	query, args, err := categoryTotalsQuery(userID, kind, period).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	totals := make([]domain.CategoryTotal, 0)
	for rows.Next() {
		var (
			t     domain.CategoryTotal
			total pgtype.Numeric
		)
		if err := rows.Scan(&t.Category, &t.Count, &total); err != nil {
			return nil, err
		}
		t.Total = pgNumericToDecimal(total)
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// RecentTransactions returns the newest transactions by occurrence date
func (r *DashboardRepository) RecentTransactions(ctx context.Context, userID int32, period domain.Period, limit int) ([]domain.RecentTransaction, error) {
	query, args, err := recentTransactionsQuery(userID, period, limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	recent := make([]domain.RecentTransaction, 0, limit)
	for rows.Next() {
		var (
			t      domain.RecentTransaction
			kind   string
			amount pgtype.Numeric
		)
		if err := rows.Scan(&t.ID, &t.Description, &kind, &amount, &t.Date, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Kind = domain.Kind(kind)
		t.Amount = pgNumericToDecimal(amount)
		recent = append(recent, t)
	}

	return recent, rows.Err()
}
