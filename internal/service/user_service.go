package service

import (
	"context"

	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// UserService handles user administration
type UserService struct {
	userRepo    domain.UserRepository
	companyRepo domain.CompanyRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo domain.UserRepository, companyRepo domain.CompanyRepository) *UserService {
	return &UserService{userRepo: userRepo, companyRepo: companyRepo}
}

// CreateUserInput holds the input for creating a user
type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Role      domain.Role
	CompanyID *int32
}

// CreateUser validates the input, hashes the password and stores the user.
// An empty role defaults to COLABORADOR.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	name, err := domain.ValidateName(input.Name)
	if err != nil {
		return nil, err
	}
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleCollaborator
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	if err := s.checkCompany(ctx, input.CompanyID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CompanyID:    input.CompanyID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int32("user_id", created.ID).Str("role", string(created.Role)).Msg("User created")
	return created, nil
}

// GetUser returns an active user
func (s *UserService) GetUser(ctx context.Context, id int32) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns every active user
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// UpdateUser applies a partial update
func (s *UserService) UpdateUser(ctx context.Context, id int32, patch domain.UserPatch) (*domain.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if !patch.ClearCompany {
		if err := s.checkCompany(ctx, patch.CompanyID); err != nil {
			return nil, err
		}
	}
	return s.userRepo.Update(ctx, id, patch)
}

// DeleteUser soft deletes a user
func (s *UserService) DeleteUser(ctx context.Context, id int32) error {
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	log.Info().Int32("user_id", id).Msg("User deleted")
	return nil
}

func (s *UserService) checkCompany(ctx context.Context, companyID *int32) error {
	if companyID == nil {
		return nil
	}
	_, err := s.companyRepo.GetByID(ctx, *companyID)
	return err
}
