package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moremoney/moremoney-backend/internal/domain"
)

var categoryColumns = []string{"id", "nome", "tipo", "empresa_id", "usuario_id", "criado_em", "atualizado_em"}

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// GetByID retrieves a category owned by userID
func (r *CategoryRepository) GetByID(ctx context.Context, userID int32, id int32) (*domain.Category, error) {
	query, args, err := psql.Select(categoryColumns...).
		From("categorias").
		Where(sq.Eq{"id": id, "usuario_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCategory(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns the user's categories ordered by name
func (r *CategoryRepository) List(ctx context.Context, userID int32, filters domain.CategoryFilters) ([]*domain.Category, error) {
	b := psql.Select(categoryColumns...).
		From("categorias").
		Where(sq.Eq{"usuario_id": userID})
	if filters.Kind != nil {
		b = b.Where(sq.Eq{"tipo": string(*filters.Kind)})
	}

	query, args, err := b.OrderBy("nome ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query, args, err := psql.Insert("categorias").
		Columns("nome", "tipo", "empresa_id", "usuario_id").
		Values(category.Name, string(category.Kind), category.CompanyID, category.UserID).
		Suffix("RETURNING " + joinColumns(categoryColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanCategory(r.pool.QueryRow(ctx, query, args...))
}

// Update applies a partial update to a category owned by userID
func (r *CategoryRepository) Update(ctx context.Context, userID int32, id int32, patch domain.CategoryPatch) (*domain.Category, error) {
	set := map[string]interface{}{"atualizado_em": sq.Expr("NOW()")}
	if patch.Name != nil {
		set["nome"] = *patch.Name
	}
	if patch.Kind != nil {
		set["tipo"] = string(*patch.Kind)
	}

	query, args, err := psql.Update("categorias").
		SetMap(set).
		Where(sq.Eq{"id": id, "usuario_id": userID}).
		Suffix("RETURNING " + joinColumns(categoryColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCategory(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a category. Its transactions keep existing without a category.
func (r *CategoryRepository) Delete(ctx context.Context, userID int32, id int32) error {
	query, args, err := psql.Delete("categorias").
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
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c         domain.Category
		kind      string
		companyID pgtype.Int4
		userID    pgtype.Int4
	)
	if err := row.Scan(&c.ID, &c.Name, &kind, &companyID, &userID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Kind = domain.Kind(kind)
	c.CompanyID = pgInt4ToPtr(companyID)
	c.UserID = pgInt4ToPtr(userID)
	return &c, nil
}
