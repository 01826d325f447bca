package service

import (
	"context"
	"errors"
	"time"

	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(user *domain.User) (token string, expiresAt time.Time, err error)
}

// AuthService handles login and session lookups
type AuthService struct {
	userRepo domain.UserRepository
	issuer   TokenIssuer
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, issuer TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, issuer: issuer}
}

// LoginResult is a freshly issued session
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login checks the credentials and issues a session token. Unknown emails
// and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("Failed to load user for login")
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		log.Debug().Int32("user_id", user.ID).Msg("Login rejected: wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		log.Error().Err(err).Int32("user_id", user.ID).Msg("Failed to issue session token")
		return nil, err
	}

	log.Info().Int32("user_id", user.ID).Msg("User authenticated")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CurrentUser returns the user behind a session
func (s *AuthService) CurrentUser(ctx context.Context, userID int32) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
