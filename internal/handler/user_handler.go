package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/service"
)

// UserHandler handles user administration HTTP requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest is the body of a user create request
type CreateUserRequest struct {
	Name      string `json:"nome"`
	Email     string `json:"email"`
	Password  string `json:"senha"`
	Role      string `json:"tipoUsuario" enums:"ADMIN,GERENTE,COLABORADOR"`
	CompanyID *int32 `json:"empresaId"`
}

// UpdateUserRequest is the body of a user patch request; a null empresaId detaches the company
type UpdateUserRequest struct {
	Name      *string         `json:"nome"`
	Email     *string         `json:"email"`
	Role      *string         `json:"tipoUsuario" enums:"ADMIN,GERENTE,COLABORADOR"`
	CompanyID optional[int32] `json:"empresaId" swaggertype:"integer"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.User
// @Failure 403 {object} ProblemDetails
// @Router /usuarios [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to list users")
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} domain.User
// @Failure 404 {object} ProblemDetails
// @Router /usuarios/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}
	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get user")
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User"
// @Success 201 {object} domain.User
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /usuarios [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	user, err := h.userService.CreateUser(c.Request().Context(), service.CreateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.Role(req.Role),
		CompanyID: req.CompanyID,
	})
	if err != nil {
		return respondCompanyRefError(c, err, "Failed to create user")
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} domain.User
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /usuarios/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	patch := domain.UserPatch{
		Name:         req.Name,
		Email:        req.Email,
		CompanyID:    req.CompanyID.Value,
		ClearCompany: req.CompanyID.Null(),
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), id, patch)
	if err != nil {
		return respondCompanyRefError(c, err, "Failed to update user")
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /usuarios/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}
	if err := h.userService.DeleteUser(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Failed to delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

// respondCompanyRefError reports an unknown empresaId in a body as a validation error
func respondCompanyRefError(c echo.Context, err error, action string) error {
	if errors.Is(err, domain.ErrCompanyNotFound) {
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "empresaId", Message: "Empresa não encontrada"}})
	}
	return respondError(c, err, action)
}
