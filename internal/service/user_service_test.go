package service

import (
	"context"
	"testing"

	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService() (*UserService, *testutil.MockUserRepository, *testutil.MockCompanyRepository) {
	users := testutil.NewMockUserRepository()
	companies := testutil.NewMockCompanyRepository()
	companies.AddCompany(&domain.Company{ID: 5, Name: "Loja", TaxID: "12345678000190"})
	return NewUserService(users, companies), users, companies
}

func TestCreateUser_Success(t *testing.T) {
	svc, _, _ := newUserService()

	created, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name:      " Maria Souza ",
		Email:     " Maria@Example.COM ",
		Password:  "segredo123",
		CompanyID: ptr32(5),
	})
	require.NoError(t, err)

	assert.Equal(t, "Maria Souza", created.Name)
	assert.Equal(t, "maria@example.com", created.Email)
	assert.Equal(t, domain.RoleCollaborator, created.Role)
	assert.NotEqual(t, "segredo123", created.PasswordHash)
	assert.True(t, auth.CheckPassword(created.PasswordHash, "segredo123"))
	require.NotNil(t, created.CompanyID)
	assert.Equal(t, int32(5), *created.CompanyID)
}

func TestCreateUser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    CreateUserInput
		expected error
	}{
		{"missing name", CreateUserInput{Email: "a@b.com", Password: "segredo123"}, domain.ErrNameRequired},
		{"bad email", CreateUserInput{Name: "A", Email: "not-an-email", Password: "segredo123"}, domain.ErrInvalidEmail},
		{"short password", CreateUserInput{Name: "A", Email: "a@b.com", Password: "curta"}, domain.ErrPasswordTooShort},
		{"unknown role", CreateUserInput{Name: "A", Email: "a@b.com", Password: "segredo123", Role: "ROOT"}, domain.ErrInvalidRole},
		{"unknown company", CreateUserInput{Name: "A", Email: "a@b.com", Password: "segredo123", CompanyID: ptr32(9)}, domain.ErrCompanyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _ := newUserService()
			_, err := svc.CreateUser(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.expected)
			assert.Empty(t, users.Users)
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@b.com", Password: "segredo123", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserInput{Name: "B", Email: "A@B.com", Password: "segredo123"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUpdateUser(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@b.com", Password: "segredo123"})
	require.NoError(t, err)

	role := domain.RoleManager
	updated, err := svc.UpdateUser(ctx, created.ID, domain.UserPatch{Role: &role, CompanyID: ptr32(5)})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, updated.Role)
	require.NotNil(t, updated.CompanyID)

	updated, err = svc.UpdateUser(ctx, created.ID, domain.UserPatch{ClearCompany: true})
	require.NoError(t, err)
	assert.Nil(t, updated.CompanyID)

	_, err = svc.UpdateUser(ctx, created.ID, domain.UserPatch{CompanyID: ptr32(77)})
	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)

	bad := domain.Role("ROOT")
	_, err = svc.UpdateUser(ctx, created.ID, domain.UserPatch{Role: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.UpdateUser(ctx, created.ID, domain.UserPatch{})
	assert.ErrorIs(t, err, domain.ErrEmptyPatch)
}

func TestDeleteUser_IsSoft(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@b.com", Password: "segredo123"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, created.ID))
	assert.NotNil(t, users.Users[created.ID].DeletedAt)

	_, err = svc.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.DeleteUser(ctx, created.ID), domain.ErrUserNotFound)
}
