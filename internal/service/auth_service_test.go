package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingIssuer struct{}

func (failingIssuer) Issue(*domain.User) (string, time.Time, error) {
	return "", time.Time{}, errors.New("signing failed")
}

func newAuthFixture(t *testing.T) (*AuthService, *testutil.MockUserRepository, auth.Config) {
	t.Helper()
	hash, err := auth.HashPassword("segredo123")
	require.NoError(t, err)

	users := testutil.NewMockUserRepository()
	users.AddUser(&domain.User{ID: 1, Name: "Ana", Email: "ana@example.com", PasswordHash: hash, Role: domain.RoleAdmin})

	cfg := auth.Config{Secret: []byte("test-secret"), Issuer: "moremoney", Audience: "moremoney-web", TTL: time.Hour}
	return NewAuthService(users, auth.NewIssuer(cfg)), users, cfg
}

func TestLogin_IssuesValidToken(t *testing.T) {
	svc, _, cfg := newAuthFixture(t)

	result, err := svc.Login(context.Background(), " ANA@example.com ", "segredo123")
	require.NoError(t, err)
	assert.Equal(t, int32(1), result.User.ID)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	validator, err := auth.NewValidator(cfg)
	require.NoError(t, err)
	session, err := validator.ValidateToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, int32(1), session.UserID)
	assert.Equal(t, domain.RoleAdmin, session.Role)
}

func TestLogin_BadCredentialsLookAlike(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ana@example.com", "errada123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ninguem@example.com", "segredo123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "not an email", "segredo123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	now := time.Now()
	users.Users[1].DeletedAt = &now
	_, err = svc.Login(ctx, "ana@example.com", "segredo123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_IssuerFailure(t *testing.T) {
	_, users, _ := newAuthFixture(t)
	svc := NewAuthService(users, failingIssuer{})

	_, err := svc.Login(context.Background(), "ana@example.com", "segredo123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestCurrentUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.CurrentUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	_, err = svc.CurrentUser(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
