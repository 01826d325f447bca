package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/middleware"
	"github.com/moremoney/moremoney-backend/internal/service"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest is the body of category create and update requests
type CategoryRequest struct {
	Name *string `json:"nome"`
	Kind *string `json:"tipo" enums:"receita,despesa"`
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param tipo query string false "receita or despesa"
// @Success 200 {array} domain.Category
// @Failure 400 {object} ProblemDetails
// @Router /categorias [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var filters domain.CategoryFilters
	if kind := c.QueryParam("tipo"); kind != "" {
		k := domain.Kind(kind)
		filters.Kind = &k
	}

	categories, err := h.categoryService.ListCategories(c.Request().Context(), userID, filters)
	if err != nil {
		return respondError(c, err, "Failed to list categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// GetCategory godoc
// @Summary Get a category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} domain.Category
// @Failure 404 {object} ProblemDetails
// @Router /categorias/{id} [get]
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	category, err := h.categoryService.GetCategory(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "Failed to get category")
	}
	return c.JSON(http.StatusOK, category)
}

// CreateCategory godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} domain.Category
// @Failure 400 {object} ProblemDetails
// @Router /categorias [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Name == nil || req.Kind == nil {
		var errs []ValidationError
		if req.Name == nil {
			errs = append(errs, ValidationError{Field: "nome", Message: "Campo obrigatório"})
		}
		if req.Kind == nil {
			errs = append(errs, ValidationError{Field: "tipo", Message: "Campo obrigatório"})
		}
		return NewValidationError(c, "Validation failed", errs)
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), userID, *req.Name, domain.Kind(*req.Kind))
	if err != nil {
		return respondError(c, err, "Failed to create category")
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update a category
// @Description Rename a category or change its kind; a kind change is refused while transactions use it
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Fields to change"
// @Success 200 {object} domain.Category
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /categorias/{id} [patch]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	patch := domain.CategoryPatch{Name: req.Name}
	if req.Kind != nil {
		kind := domain.Kind(*req.Kind)
		patch.Kind = &kind
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), userID, id, patch)
	if err != nil {
		return respondError(c, err, "Failed to update category")
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Its transactions are kept without a category
// @Tags categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /categorias/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), userID, id); err != nil {
		return respondError(c, err, "Failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}
