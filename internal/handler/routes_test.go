package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/middleware"
	"github.com/moremoney/moremoney-backend/internal/service"
	"github.com/moremoney/moremoney-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routesTestEnv struct {
	echo   *echo.Echo
	issuer *auth.Issuer
	users  *testutil.MockUserRepository
}

func newRoutesTestEnv(t *testing.T) *routesTestEnv {
	t.Helper()
	users := testutil.NewMockUserRepository()
	users.AddUser(&domain.User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin})
	users.AddUser(&domain.User{ID: 2, Name: "Bruno", Email: "bruno@example.com", Role: domain.RoleCollaborator})

	companies := testutil.NewMockCompanyRepository()
	categories := testutil.NewMockCategoryRepository()
	transactions := testutil.NewMockTransactionRepository()
	transactions.Categories = categories

	issuer := auth.NewIssuer(testSessionConfig)
	validator, err := auth.NewValidator(testSessionConfig)
	require.NoError(t, err)

	h := Handlers{
		Auth: NewAuthHandler(
			service.NewAuthService(users, issuer),
			service.NewPasswordService(users, &testutil.MockMailPublisher{}, "https://app.moremoney.test"),
		),
		Dashboard: NewDashboardHandler(service.NewDashboardService(
			testutil.NewMockDashboardRepository(transactions, categories), service.DashboardOptions{})),
		Transaction: NewTransactionHandler(service.NewTransactionService(transactions, categories, users)),
		Category:    NewCategoryHandler(service.NewCategoryService(categories, transactions, users)),
		Company:     NewCompanyHandler(service.NewCompanyService(companies)),
		User:        NewUserHandler(service.NewUserService(users, companies)),
	}

	e := echo.New()
	RegisterRoutes(e, middleware.NewAuthMiddleware(validator), RouteLimits{}, h)
	return &routesTestEnv{echo: e, issuer: issuer, users: users}
}

func (env *routesTestEnv) do(t *testing.T, method, target string, userID int32, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != 0 {
		token, _, err := env.issuer.Issue(env.users.Users[userID])
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_SessionRequired(t *testing.T) {
	env := newRoutesTestEnv(t)

	for _, target := range []string{"/api/v1/dashboard", "/api/v1/lancamentos", "/api/v1/categorias", "/api/v1/auth/me"} {
		rec := env.do(t, http.MethodGet, target, 0, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard", 2, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_PublicAuthEndpoints(t *testing.T) {
	env := newRoutesTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/recuperar-senha", 0, `{"email":"ninguem@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", 0, `{"email":"ninguem@example.com","senha":"segredo123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_AdminOnly(t *testing.T) {
	env := newRoutesTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/usuarios", 2, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/usuarios", 1, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/empresas", 2, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/empresas", 2, `{"nome":"Oficina","cnpj":"98765432000110"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/empresas", 1, `{"nome":"Oficina","cnpj":"98765432000110"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
