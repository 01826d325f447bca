package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moremoney/moremoney-backend/internal/domain"
)

var transactionColumns = []string{
	"l.id", "l.descricao", "l.valor", "l.tipo", "l.data", "l.categoria_id", "c.nome",
	"l.empresa_id", "l.usuario_id", "l.status", "l.criado_em", "l.atualizado_em",
}

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func selectTransactions() sq.SelectBuilder {
	return psql.Select(transactionColumns...).
		From("lancamentos l").
		LeftJoin("categorias c ON c.id = l.categoria_id")
}

func listTransactionsQuery(userID int32, filters domain.TransactionFilters) sq.SelectBuilder {
	b := selectTransactions().Where(sq.Eq{"l.usuario_id": userID})
	b = withPeriod(b, "l.data", filters.Period)
	if filters.Kind != nil {
		b = b.Where(sq.Eq{"l.tipo": string(*filters.Kind)})
	}
	if filters.CategoryID != nil {
		b = b.Where(sq.Eq{"l.categoria_id": *filters.CategoryID})
	}
	if filters.Search != "" {
		b = b.Where(sq.ILike{"l.descricao": likePattern(filters.Search)})
	}
	return b.OrderBy("l.data DESC", "l.id DESC")
}

// transactionPatchSet maps the present patch fields onto their columns
func transactionPatchSet(patch domain.TransactionPatch) (map[string]interface{}, error) {
	set := map[string]interface{}{"atualizado_em": sq.Expr("NOW()")}
	if patch.Description != nil {
		set["descricao"] = *patch.Description
	}
	if patch.Amount != nil {
		amount, err := decimalToPgNumeric(*patch.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		set["valor"] = amount
	}
	if patch.Kind != nil {
		set["tipo"] = string(*patch.Kind)
	}
	if patch.Date != nil {
		set["data"] = pgDate(*patch.Date)
	}
	switch {
	case patch.ClearCategory:
		set["categoria_id"] = nil
	case patch.CategoryID != nil:
		set["categoria_id"] = *patch.CategoryID
	}
	switch {
	case patch.ClearStatus:
		set["status"] = nil
	case patch.Status != nil:
		set["status"] = string(*patch.Status)
	}
	return set, nil
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var status *string
	if transaction.Status != nil {
		s := string(*transaction.Status)
		status = &s
	}

	query, args, err := psql.Insert("lancamentos").
		Columns("descricao", "valor", "tipo", "data", "categoria_id", "empresa_id", "usuario_id", "status").
		Values(transaction.Description, amount, string(transaction.Kind), pgDate(transaction.Date),
			transaction.CategoryID, transaction.CompanyID, transaction.UserID, status).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var id int32
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if mapped := transactionWriteError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}

	return r.GetByID(ctx, transaction.UserID, id)
}

// GetByID retrieves a transaction owned by userID
func (r *TransactionRepository) GetByID(ctx context.Context, userID int32, id int32) (*domain.Transaction, error) {
	query, args, err := selectTransactions().
		Where(sq.Eq{"l.id": id, "l.usuario_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns the user's transactions, newest occurrence first
func (r *TransactionRepository) List(ctx context.Context, userID int32, filters domain.TransactionFilters) ([]*domain.Transaction, error) {
	query, args, err := listTransactionsQuery(userID, filters).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Update applies a partial update and returns the stored row
func (r *TransactionRepository) Update(ctx context.Context, userID int32, id int32, patch domain.TransactionPatch) (*domain.Transaction, error) {
	set, err := transactionPatchSet(patch)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Update("lancamentos").
		SetMap(set).
		Where(sq.Eq{"id": id, "usuario_id": userID}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var updatedID int32
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		if mapped := transactionWriteError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}

	return r.GetByID(ctx, userID, updatedID)
}

// Delete removes a transaction owned by userID
func (r *TransactionRepository) Delete(ctx context.Context, userID int32, id int32) error {
	query, args, err := psql.Delete("lancamentos").
		Where(sq.Eq{"id": id, "usuario_id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t            domain.Transaction
		amount       pgtype.Numeric
		kind         string
		date         pgtype.Date
		categoryID   pgtype.Int4
		categoryName pgtype.Text
		companyID    pgtype.Int4
		status       pgtype.Text
	)
	err := row.Scan(&t.ID, &t.Description, &amount, &kind, &date, &categoryID, &categoryName,
		&companyID, &t.UserID, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Amount = pgNumericToDecimal(amount)
	t.Kind = domain.Kind(kind)
	t.Date = date.Time
	t.CategoryID = pgInt4ToPtr(categoryID)
	t.CompanyID = pgInt4ToPtr(companyID)
	if categoryName.Valid {
		t.CategoryName = &categoryName.String
	}
	if status.Valid {
		s := domain.Status(status.String)
		t.Status = &s
	}
	return &t, nil
}

// transactionWriteError translates constraint failures of an insert or update
// into domain errors, or returns nil when err is not one of them
func transactionWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch {
	case pgErr.Code == pgForeignKeyViolation:
		return domain.ErrCategoryNotFound
	case pgErr.Code == pgNumericOutOfRange,
		pgErr.Code == pgCheckViolation && pgErr.ConstraintName == amountCheckConstraint:
		return domain.ErrInvalidAmount
	}
	return nil
}
