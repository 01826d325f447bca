package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthOf(year int, month time.Month) domain.Period {
	return domain.MonthPeriod(year, int(month))
}

func TestSumByKindQuery_BoundedPeriod(t *testing.T) {
	period := monthOf(2025, time.February)

	query, args, err := sumByKindQuery(7, period).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COALESCE(SUM(CASE WHEN tipo = $1 THEN valor ELSE 0 END), 0) AS receitas, "+
			"COALESCE(SUM(CASE WHEN tipo = $2 THEN valor ELSE 0 END), 0) AS despesas "+
			"FROM lancamentos WHERE usuario_id = $3 AND data >= $4 AND data < $5",
		query)
	require.Len(t, args, 5)
	assert.Equal(t, "receita", args[0])
	assert.Equal(t, "despesa", args[1])
	assert.Equal(t, int32(7), args[2])
	assert.Equal(t, pgtype.Date{Time: *period.Start, Valid: true}, args[3])
	assert.Equal(t, pgtype.Date{Time: *period.End, Valid: true}, args[4])
}

func TestSumByKindQuery_UnboundedPeriod(t *testing.T) {
	query, args, err := sumByKindQuery(7, domain.Period{}).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, query, "data >=")
	assert.NotContains(t, query, "data <")
	assert.Len(t, args, 3)
}

func TestMonthlyBucketsQuery(t *testing.T) {
	query, _, err := monthlyBucketsQuery(1, domain.YearPeriod(2025)).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "date_trunc('month', data)::date AS mes")
	assert.Contains(t, query, "MIN(data) AS primeira_data")
	assert.Contains(t, query, "GROUP BY mes")
	assert.Contains(t, query, "ORDER BY primeira_data ASC")
}

func TestCategoryTotalsQuery(t *testing.T) {
	query, args, err := categoryTotalsQuery(3, domain.KindExpense, domain.Period{}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT c.nome, COUNT(l.id) AS quantidade, COALESCE(SUM(l.valor), 0) AS total "+
			"FROM lancamentos l JOIN categorias c ON c.id = l.categoria_id "+
			"WHERE l.tipo = $1 AND l.usuario_id = $2 "+
			"GROUP BY c.nome ORDER BY total DESC, c.nome ASC",
		query)
	assert.Equal(t, []interface{}{"despesa", int32(3)}, args)
}

func TestRecentTransactionsQuery(t *testing.T) {
	query, args, err := recentTransactionsQuery(9, domain.Period{}, 5).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, descricao, tipo, valor, data, criado_em FROM lancamentos "+
			"WHERE usuario_id = $1 ORDER BY data DESC, id DESC LIMIT 5",
		query)
	assert.Equal(t, []interface{}{int32(9)}, args)
}

func TestListTransactionsQuery_Filters(t *testing.T) {
	kind := domain.KindIncome
	categoryID := int32(4)

	query, args, err := listTransactionsQuery(2, domain.TransactionFilters{
		Period:     monthOf(2025, time.March),
		Kind:       &kind,
		CategoryID: &categoryID,
		Search:     "50%_off",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "LEFT JOIN categorias c ON c.id = l.categoria_id")
	assert.Contains(t, query, "l.usuario_id = $1 AND l.data >= $2 AND l.data < $3 AND l.tipo = $4 AND l.categoria_id = $5 AND l.descricao ILIKE $6")
	assert.Contains(t, query, "ORDER BY l.data DESC, l.id DESC")
	require.Len(t, args, 6)
	assert.Equal(t, `%50\%\_off%`, args[5])
}

func TestTransactionPatchSet(t *testing.T) {
	amount := decimal.RequireFromString("12.50")
	status := domain.StatusPaid

	set, err := transactionPatchSet(domain.TransactionPatch{
		Amount:        &amount,
		ClearCategory: true,
		Status:        &status,
	})
	require.NoError(t, err)

	assert.Contains(t, set, "atualizado_em")
	assert.Contains(t, set, "valor")
	assert.Nil(t, set["categoria_id"])
	assert.Contains(t, set, "categoria_id")
	assert.Equal(t, "pago", set["status"])
	assert.NotContains(t, set, "descricao")
	assert.NotContains(t, set, "data")
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0.01", "1500.00", "123456789.99"} {
		n, err := decimalToPgNumeric(decimal.RequireFromString(s))
		require.NoError(t, err)
		assert.Equal(t, s, pgNumericToDecimal(n).StringFixed(2))
	}
	assert.True(t, pgNumericToDecimal(pgtype.Numeric{}).IsZero())
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/db", migrateURL("postgres://u:p@localhost:5432/db"))
	assert.Equal(t, "pgx5://u@h/db", migrateURL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://h/db", migrateURL("pgx5://h/db"))
}

func TestTransactionWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"foreign key", &pgconn.PgError{Code: pgForeignKeyViolation}, domain.ErrCategoryNotFound},
		{"amount check", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: amountCheckConstraint}, domain.ErrInvalidAmount},
		{"numeric overflow", fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgNumericOutOfRange}), domain.ErrInvalidAmount},
		{"other check", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "lancamentos_status_check"}, nil},
		{"not a pg error", errors.New("boom"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transactionWriteError(tt.err))
		})
	}
}
