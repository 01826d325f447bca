package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	recoveryTokenBytes = 32
	// RecoveryTokenTTL is how long a password recovery link stays usable
	RecoveryTokenTTL = time.Hour
)

// PasswordService handles password recovery
type PasswordService struct {
	userRepo  domain.UserRepository
	mailer    domain.MailPublisher
	appURL    string
	now       func() time.Time
	randToken func() (string, error)
}

// NewPasswordService creates a new PasswordService. appURL is the front-end
// base the recovery link points to.
func NewPasswordService(userRepo domain.UserRepository, mailer domain.MailPublisher, appURL string) *PasswordService {
	return &PasswordService{
		userRepo:  userRepo,
		mailer:    mailer,
		appURL:    strings.TrimRight(appURL, "/"),
		now:       time.Now,
		randToken: newRecoveryToken,
	}
}

func newRecoveryToken() (string, error) {
	b := make([]byte, recoveryTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashRecoveryToken is the form a recovery token is stored in
func HashRecoveryToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestReset issues a recovery token for email and queues the recovery
// mail. Unknown addresses succeed silently so callers cannot probe for accounts.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Debug().Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.randToken()
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(RecoveryTokenTTL)
	if err := s.userRepo.SetRecoveryToken(ctx, user.ID, HashRecoveryToken(token), expiresAt); err != nil {
		log.Error().Err(err).Int32("user_id", user.ID).Msg("Failed to store recovery token")
		return err
	}

	mail := domain.PasswordResetMail{
		To:   user.Email,
		Name: user.Name,
		Link: s.appURL + "/alterar-senha?token=" + url.QueryEscape(token),
	}
	if err := s.mailer.PublishPasswordReset(ctx, mail); err != nil {
		log.Error().Err(err).Int32("user_id", user.ID).Msg("Failed to queue password reset mail")
		return err
	}

	log.Info().Int32("user_id", user.ID).Msg("Password reset requested")
	return nil
}

// ResetPassword sets a new password for the holder of a valid recovery token
// and invalidates the token.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return domain.ErrInvalidRecoveryToken
	}

	user, err := s.userRepo.GetByRecoveryToken(ctx, HashRecoveryToken(token), s.now())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidRecoveryToken
		}
		return err
	}

	if auth.CheckPassword(user.PasswordHash, newPassword) {
		return domain.ErrPasswordUnchanged
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.ResetPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	log.Info().Int32("user_id", user.ID).Msg("Password reset completed")
	return nil
}
