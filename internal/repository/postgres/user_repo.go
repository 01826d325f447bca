package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moremoney/moremoney-backend/internal/domain"
)

var userColumns = []string{
	"id", "nome", "email", "senha_hash", "tipo_usuario", "empresa_id",
	"criado_em", "atualizado_em", "data_exclusao",
}

// UserRepository implements domain.UserRepository using PostgreSQL.
// Soft-deleted users are invisible to every read.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func activeUsers() sq.SelectBuilder {
	return psql.Select(userColumns...).
		From("usuarios").
		Where(sq.Eq{"data_exclusao": nil})
}

func (r *UserRepository) getOne(ctx context.Context, b sq.SelectBuilder) (*domain.User, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByID retrieves an active user by id
func (r *UserRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	return r.getOne(ctx, activeUsers().Where(sq.Eq{"id": id}))
}

// GetByEmail retrieves an active user by normalized email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, activeUsers().Where(sq.Eq{"email": email}))
}

// List returns every active user ordered by name
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	query, args, err := activeUsers().OrderBy("nome ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query, args, err := psql.Insert("usuarios").
		Columns("nome", "email", "senha_hash", "tipo_usuario", "empresa_id").
		Values(user.Name, user.Email, user.PasswordHash, string(user.Role), user.CompanyID).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapUserWriteError(err)
	}
	return u, nil
}

// Update applies a partial update to an active user
func (r *UserRepository) Update(ctx context.Context, id int32, patch domain.UserPatch) (*domain.User, error) {
	set := map[string]interface{}{"atualizado_em": sq.Expr("NOW()")}
	if patch.Name != nil {
		set["nome"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Role != nil {
		set["tipo_usuario"] = string(*patch.Role)
	}
	switch {
	case patch.ClearCompany:
		set["empresa_id"] = nil
	case patch.CompanyID != nil:
		set["empresa_id"] = *patch.CompanyID
	}

	query, args, err := psql.Update("usuarios").
		SetMap(set).
		Where(sq.Eq{"id": id, "data_exclusao": nil}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapUserWriteError(err)
	}
	return u, nil
}

// SoftDelete stamps data_exclusao on an active user
func (r *UserRepository) SoftDelete(ctx context.Context, id int32) error {
	return r.execOne(ctx, psql.Update("usuarios").
		Set("data_exclusao", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "data_exclusao": nil}))
}

// SetRecoveryToken stores the hash of a password recovery token
func (r *UserRepository) SetRecoveryToken(ctx context.Context, id int32, tokenHash string, expiresAt time.Time) error {
	return r.execOne(ctx, psql.Update("usuarios").
		Set("token_recuperacao", tokenHash).
		Set("expiracao_token_recuperacao", expiresAt).
		Where(sq.Eq{"id": id, "data_exclusao": nil}))
}

// GetByRecoveryToken retrieves the active user holding an unexpired token
func (r *UserRepository) GetByRecoveryToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.getOne(ctx, activeUsers().
		Where(sq.Eq{"token_recuperacao": tokenHash}).
		Where(sq.Gt{"expiracao_token_recuperacao": now}))
}

// ResetPassword stores a new password hash and clears any recovery token
func (r *UserRepository) ResetPassword(ctx context.Context, id int32, passwordHash string) error {
	return r.execOne(ctx, psql.Update("usuarios").
		Set("senha_hash", passwordHash).
		Set("token_recuperacao", nil).
		Set("expiracao_token_recuperacao", nil).
		Set("atualizado_em", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "data_exclusao": nil}))
}

func (r *UserRepository) execOne(ctx context.Context, b sq.UpdateBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func mapUserWriteError(err error) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return domain.ErrEmailTaken
	case pgForeignKeyViolation:
		return domain.ErrCompanyNotFound
	}
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		companyID pgtype.Int4
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &companyID,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CompanyID = pgInt4ToPtr(companyID)
	return &u, nil
}
