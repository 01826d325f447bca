package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/service"
	"github.com/moremoney/moremoney-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoryTestEnv struct {
	handler      *CategoryHandler
	categories   *testutil.MockCategoryRepository
	transactions *testutil.MockTransactionRepository
	events       *testutil.MockEventPublisher
}

func newCategoryTestEnv() *categoryTestEnv {
	users := testutil.NewMockUserRepository()
	company := int32(3)
	users.AddUser(&domain.User{ID: 1, Name: "Ana", Email: "ana@example.com", Role: domain.RoleManager, CompanyID: &company})

	categories := testutil.NewMockCategoryRepository()
	ana, other := int32(1), int32(2)
	categories.AddCategory(&domain.Category{ID: 1, Name: "Salário", Kind: domain.KindIncome, UserID: &ana})
	categories.AddCategory(&domain.Category{ID: 2, Name: "Mercado", Kind: domain.KindExpense, UserID: &ana})
	categories.AddCategory(&domain.Category{ID: 3, Name: "Lazer", Kind: domain.KindExpense, UserID: &other})

	transactions := testutil.NewMockTransactionRepository()
	transactions.Categories = categories

	svc := service.NewCategoryService(categories, transactions, users)
	events := &testutil.MockEventPublisher{}
	svc.SetEventPublisher(events)

	return &categoryTestEnv{
		handler:      NewCategoryHandler(svc),
		categories:   categories,
		transactions: transactions,
		events:       events,
	}
}

func TestListCategories_OwnedOnly(t *testing.T) {
	env := newCategoryTestEnv()
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/api/v1/categorias", "")
	authenticate(c, 1, domain.RoleManager)

	require.NoError(t, env.handler.ListCategories(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response []domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	names := make([]string, 0, len(response))
	for _, c := range response {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Salário", "Mercado"}, names)
}

func TestListCategories_ByKind(t *testing.T) {
	env := newCategoryTestEnv()
	e := echo.New()

	c, rec := newContext(e, http.MethodGet, "/api/v1/categorias?tipo=despesa", "")
	authenticate(c, 1, domain.RoleManager)
	require.NoError(t, env.handler.ListCategories(c))
	var response []domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "Mercado", response[0].Name)

	c, rec = newContext(e, http.MethodGet, "/api/v1/categorias?tipo=outro", "")
	authenticate(c, 1, domain.RoleManager)
	require.NoError(t, env.handler.ListCategories(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCategory(t *testing.T) {
	env := newCategoryTestEnv()
	e := echo.New()
	c, rec := newContext(e, http.MethodPost, "/api/v1/categorias", `{"nome":"  Transporte ","tipo":"despesa"}`)
	authenticate(c, 1, domain.RoleManager)

	require.NoError(t, env.handler.CreateCategory(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Transporte", created.Name)
	assert.Equal(t, domain.KindExpense, created.Kind)
	require.NotNil(t, created.CompanyID)
	assert.Equal(t, int32(3), *created.CompanyID)
	require.NotNil(t, created.UserID)
	assert.Equal(t, int32(1), *created.UserID)
	assert.Equal(t, []string{"category.created"}, env.events.Types())
}

func TestCreateCategory_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"missing both", `{}`, []string{"nome", "tipo"}},
		{"missing kind", `{"nome":"Transporte"}`, []string{"tipo"}},
		{"blank name", `{"nome":" ","tipo":"despesa"}`, []string{"nome"}},
		{"bad kind", `{"nome":"Transporte","tipo":"outro"}`, []string{"tipo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCategoryTestEnv()
			e := echo.New()
			c, rec := newContext(e, http.MethodPost, "/api/v1/categorias", tt.body)
			authenticate(c, 1, domain.RoleManager)

			require.NoError(t, env.handler.CreateCategory(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.fields, fields(decodeProblem(t, rec)))
		})
	}
}

func TestGetCategory_ForeignIsNotFound(t *testing.T) {
	env := newCategoryTestEnv()
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/api/v1/categorias/3", "")
	withID(c, "3")
	authenticate(c, 1, domain.RoleManager)

	require.NoError(t, env.handler.GetCategory(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCategory_Rename(t *testing.T) {
	env := newCategoryTestEnv()
	e := echo.New()
	c, rec := newContext(e, http.MethodPatch, "/api/v1/categorias/2", `{"nome":"Supermercado"}`)
	withID(c, "2")
	authenticate(c, 1, domain.RoleManager)

	require.NoError(t, env.handler.UpdateCategory(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Supermercado", env.categories.Categories[2].Name)
	assert.Equal(t, []string{"category.updated"}, env.events.Types())
}

func TestUpdateCategory_KindChangeRefusedWhileInUse(t *testing.T) {
	env := newCategoryTestEnv()
	market := int32(2)
	env.transactions.AddTransaction(&domain.Transaction{
		ID: 1, Description: "Feira", Amount: decimal.NewFromInt(80), Kind: domain.KindExpense,
		Date: time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC), CategoryID: &market, UserID: 1,
	})
	e := echo.New()
	c, rec := newContext(e, http.MethodPatch, "/api/v1/categorias/2", `{"tipo":"receita"}`)
	withID(c, "2")
	authenticate(c, 1, domain.RoleManager)

	require.NoError(t, env.handler.UpdateCategory(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.KindExpense, env.categories.Categories[2].Kind)
	assert.Empty(t, env.events.Types())
}

func TestDeleteCategory(t *testing.T) {
	env := newCategoryTestEnv()
	e := echo.New()

	c, rec := newContext(e, http.MethodDelete, "/api/v1/categorias/2", "")
	withID(c, "2")
	authenticate(c, 1, domain.RoleManager)
	require.NoError(t, env.handler.DeleteCategory(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newContext(e, http.MethodDelete, "/api/v1/categorias/3", "")
	withID(c, "3")
	authenticate(c, 1, domain.RoleManager)
	require.NoError(t, env.handler.DeleteCategory(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.categories.Categories, int32(3))

	assert.Equal(t, []string{"category.deleted"}, env.events.Types())
}
