// Package auth issues and validates the signed session tokens handed out at login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/moremoney/moremoney-backend/internal/domain"
)

// ErrInvalidToken is returned when a session token fails validation
var ErrInvalidToken = errors.New("invalid session token")

// DefaultTTL is how long a session token stays valid when no TTL is configured
const DefaultTTL = 24 * time.Hour

// Session is the authenticated identity carried by a token
type Session struct {
	UserID    int32
	Role      domain.Role
	CompanyID *int32
}

// Claims is the payload of a session token
type Claims struct {
	Role      domain.Role `json:"role"`
	CompanyID *int32      `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// SessionClaims are the custom claims read back by the validator
type SessionClaims struct {
	Role      domain.Role `json:"role"`
	CompanyID *int32      `json:"company_id,omitempty"`
}

// Validate implements validator.CustomClaims
func (c *SessionClaims) Validate(ctx context.Context) error {
	if !c.Role.Valid() {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

// Config holds the signing parameters shared by Issuer and Validator
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Issuer signs HS256 session tokens
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer creates a new Issuer
func NewIssuer(cfg Config) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Issuer{cfg: cfg, now: time.Now}
}

// Issue signs a token for user and returns it with its expiry
func (i *Issuer) Issue(user *domain.User) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.cfg.TTL)

	claims := Claims{
		Role:      user.Role,
		CompanyID: user.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(int64(user.ID), 10),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validator checks session tokens
type Validator struct {
	validator *validator.Validator
}

// NewValidator creates a Validator bound to the issuer, audience and secret in cfg
func NewValidator(cfg Config) (*Validator, error) {
	secret := cfg.Secret
	keyFunc := func(context.Context) (interface{}, error) {
		return secret, nil
	}

	v, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.Issuer,
		[]string{cfg.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &SessionClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Validator{validator: v}, nil
}

// ValidateToken verifies token and returns the session it carries
func (v *Validator) ValidateToken(ctx context.Context, token string) (*Session, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	custom, ok := validated.CustomClaims.(*SessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(validated.RegisteredClaims.Subject, 10, 32)
	if err != nil || userID <= 0 {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserID:    int32(userID),
		Role:      custom.Role,
		CompanyID: custom.CompanyID,
	}, nil
}
