package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moremoney/moremoney-backend/internal/domain"
)

var companyColumns = []string{"id", "nome", "cnpj", "criado_em", "atualizado_em", "data_exclusao"}

// CompanyRepository implements domain.CompanyRepository using PostgreSQL
type CompanyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

func activeCompanies() sq.SelectBuilder {
	return psql.Select(companyColumns...).
		From("empresas").
		Where(sq.Eq{"data_exclusao": nil})
}

// GetByID retrieves an active company
func (r *CompanyRepository) GetByID(ctx context.Context, id int32) (*domain.Company, error) {
	query, args, err := activeCompanies().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCompany(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns every active company ordered by name
func (r *CompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	query, args, err := activeCompanies().OrderBy("nome ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Create creates a new company
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) (*domain.Company, error) {
	query, args, err := psql.Insert("empresas").
		Columns("nome", "cnpj").
		Values(company.Name, company.TaxID).
		Suffix("RETURNING " + joinColumns(companyColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCompany(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return c, nil
}

// Update applies a partial update to an active company
func (r *CompanyRepository) Update(ctx context.Context, id int32, patch domain.CompanyPatch) (*domain.Company, error) {
	set := map[string]interface{}{"atualizado_em": sq.Expr("NOW()")}
	if patch.Name != nil {
		set["nome"] = *patch.Name
	}
	if patch.TaxID != nil {
		set["cnpj"] = *patch.TaxID
	}

	query, args, err := psql.Update("empresas").
		SetMap(set).
		Where(sq.Eq{"id": id, "data_exclusao": nil}).
		Suffix("RETURNING " + joinColumns(companyColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCompany(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return c, nil
}

// SoftDelete stamps data_exclusao on an active company
func (r *CompanyRepository) SoftDelete(ctx context.Context, id int32) error {
	query, args, err := psql.Update("empresas").
		Set("data_exclusao", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "data_exclusao": nil}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCompanyNotFound
	}
	return nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	if err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
