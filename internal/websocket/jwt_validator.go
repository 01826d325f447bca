package websocket

import (
	"context"
	"errors"

	"github.com/moremoney/moremoney-backend/internal/auth"
)

// ErrInvalidToken is returned when the connection token fails validation
var ErrInvalidToken = errors.New("invalid token")

// SessionValidator is the part of auth.Validator the upgrade path needs
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Session, error)
}

// TokenValidator resolves the session token passed on the upgrade URL to a user id
type TokenValidator struct {
	sessions SessionValidator
}

// NewTokenValidator creates a new TokenValidator
func NewTokenValidator(sessions SessionValidator) *TokenValidator {
	return &TokenValidator{sessions: sessions}
}

// ValidateToken returns the user the token was issued to
func (v *TokenValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	session, err := v.sessions.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return session.UserID, nil
}
