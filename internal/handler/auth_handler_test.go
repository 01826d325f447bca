package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/service"
	"github.com/moremoney/moremoney-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSessionConfig = auth.Config{
	Secret:   []byte("handler-test-secret"),
	Issuer:   "moremoney",
	Audience: "moremoney-web",
	TTL:      time.Hour,
}

type authTestEnv struct {
	handler *AuthHandler
	users   *testutil.MockUserRepository
	mailer  *testutil.MockMailPublisher
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	hash, err := auth.HashPassword("segredo123")
	require.NoError(t, err)

	users := testutil.NewMockUserRepository()
	users.AddUser(&domain.User{ID: 1, Name: "Ana", Email: "ana@example.com", PasswordHash: hash, Role: domain.RoleAdmin})

	mailer := &testutil.MockMailPublisher{}
	authService := service.NewAuthService(users, auth.NewIssuer(testSessionConfig))
	passwordService := service.NewPasswordService(users, mailer, "https://app.moremoney.test")

	return &authTestEnv{
		handler: NewAuthHandler(authService, passwordService),
		users:   users,
		mailer:  mailer,
	}
}

func TestLogin_Success(t *testing.T) {
	env := newAuthTestEnv(t)
	e := echo.New()
	c, rec := newContext(e, http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","senha":"segredo123"}`)

	require.NoError(t, env.handler.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.User)
	assert.Equal(t, int32(1), response.User.ID)
	assert.NotContains(t, rec.Body.String(), "segredo123")

	expiresAt, err := time.Parse(time.RFC3339, response.ExpiresAt)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	validator, err := auth.NewValidator(testSessionConfig)
	require.NoError(t, err)
	session, err := validator.ValidateToken(context.Background(), response.Token)
	require.NoError(t, err)
	assert.Equal(t, int32(1), session.UserID)
	assert.Equal(t, domain.RoleAdmin, session.Role)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"email":"ana@example.com","senha":"errada123"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"ninguem@example.com","senha":"segredo123"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"ana@example.com"}`, http.StatusBadRequest},
		{"malformed body", `{"email":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAuthTestEnv(t)
			e := echo.New()
			c, rec := newContext(e, http.MethodPost, "/api/v1/auth/login", tt.body)

			require.NoError(t, env.handler.Login(c))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestMe(t *testing.T) {
	env := newAuthTestEnv(t)
	e := echo.New()

	c, rec := newContext(e, http.MethodGet, "/api/v1/auth/me", "")
	authenticate(c, 1, domain.RoleAdmin)
	require.NoError(t, env.handler.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "ana@example.com", user.Email)

	c, rec = newContext(e, http.MethodGet, "/api/v1/auth/me", "")
	require.NoError(t, env.handler.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(e, http.MethodGet, "/api/v1/auth/me", "")
	authenticate(c, 42, domain.RoleAdmin)
	require.NoError(t, env.handler.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordRecovery_RoundTrip(t *testing.T) {
	env := newAuthTestEnv(t)
	e := echo.New()

	c, rec := newContext(e, http.MethodPost, "/api/v1/auth/recuperar-senha", `{"email":"ana@example.com"}`)
	require.NoError(t, env.handler.RequestPasswordReset(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.mailer.Sent, 1)
	assert.Equal(t, "ana@example.com", env.mailer.Sent[0].To)

	link, err := url.Parse(env.mailer.Sent[0].Link)
	require.NoError(t, err)
	assert.Equal(t, "/alterar-senha", link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	body := `{"token":"` + token + `","senha":"novasenha456"}`
	c, rec = newContext(e, http.MethodPost, "/api/v1/auth/alterar-senha", body)
	require.NoError(t, env.handler.ResetPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, auth.CheckPassword(env.users.Users[1].PasswordHash, "novasenha456"))

	// the token is single use
	c, rec = newContext(e, http.MethodPost, "/api/v1/auth/alterar-senha", `{"token":"`+token+`","senha":"outrasenha789"}`)
	require.NoError(t, env.handler.ResetPassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"token"}, fields(decodeProblem(t, rec)))
}

func TestRequestPasswordReset_UnknownEmailLooksTheSame(t *testing.T) {
	env := newAuthTestEnv(t)
	e := echo.New()

	c, known := newContext(e, http.MethodPost, "/api/v1/auth/recuperar-senha", `{"email":"ana@example.com"}`)
	require.NoError(t, env.handler.RequestPasswordReset(c))

	c, unknown := newContext(e, http.MethodPost, "/api/v1/auth/recuperar-senha", `{"email":"ninguem@example.com"}`)
	require.NoError(t, env.handler.RequestPasswordReset(c))

	assert.Equal(t, known.Code, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())
	assert.Len(t, env.mailer.Sent, 1)
}

func TestRequestPasswordReset_InvalidEmail(t *testing.T) {
	env := newAuthTestEnv(t)
	e := echo.New()
	c, rec := newContext(e, http.MethodPost, "/api/v1/auth/recuperar-senha", `{"email":"not-an-email"}`)

	require.NoError(t, env.handler.RequestPasswordReset(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"email"}, fields(decodeProblem(t, rec)))
}

func TestResetPassword_ShortPassword(t *testing.T) {
	env := newAuthTestEnv(t)
	e := echo.New()
	c, rec := newContext(e, http.MethodPost, "/api/v1/auth/alterar-senha", `{"token":"abc","senha":"curta"}`)

	require.NoError(t, env.handler.ResetPassword(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"senha"}, fields(decodeProblem(t, rec)))
}
