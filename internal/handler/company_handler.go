package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/service"
)

// CompanyHandler handles company-related HTTP requests
type CompanyHandler struct {
	companyService *service.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// CompanyRequest is the body of company create and update requests
type CompanyRequest struct {
	Name  *string `json:"nome"`
	TaxID *string `json:"cnpj" example:"12.345.678/0001-90"`
}

// ListCompanies godoc
// @Summary List companies
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Company
// @Router /empresas [get]
func (h *CompanyHandler) ListCompanies(c echo.Context) error {
	companies, err := h.companyService.ListCompanies(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to list companies")
	}
	return c.JSON(http.StatusOK, companies)
}

// GetCompany godoc
// @Summary Get a company
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Company ID"
// @Success 200 {object} domain.Company
// @Failure 404 {object} ProblemDetails
// @Router /empresas/{id} [get]
func (h *CompanyHandler) GetCompany(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}
	company, err := h.companyService.GetCompany(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get company")
	}
	return c.JSON(http.StatusOK, company)
}

// CreateCompany godoc
// @Summary Create a company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CompanyRequest true "Company"
// @Success 201 {object} domain.Company
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /empresas [post]
func (h *CompanyHandler) CreateCompany(c echo.Context) error {
	var req CompanyRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	var name, taxID string
	if req.Name != nil {
		name = *req.Name
	}
	if req.TaxID != nil {
		taxID = *req.TaxID
	}

	company, err := h.companyService.CreateCompany(c.Request().Context(), name, taxID)
	if err != nil {
		return respondError(c, err, "Failed to create company")
	}
	return c.JSON(http.StatusCreated, company)
}

// UpdateCompany godoc
// @Summary Update a company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Company ID"
// @Param request body CompanyRequest true "Fields to change"
// @Success 200 {object} domain.Company
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /empresas/{id} [patch]
func (h *CompanyHandler) UpdateCompany(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}
	var req CompanyRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	company, err := h.companyService.UpdateCompany(c.Request().Context(), id, domain.CompanyPatch{Name: req.Name, TaxID: req.TaxID})
	if err != nil {
		return respondError(c, err, "Failed to update company")
	}
	return c.JSON(http.StatusOK, company)
}

// DeleteCompany godoc
// @Summary Delete a company
// @Tags companies
// @Security BearerAuth
// @Param id path int true "Company ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /empresas/{id} [delete]
func (h *CompanyHandler) DeleteCompany(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}
	if err := h.companyService.DeleteCompany(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Failed to delete company")
	}
	return c.NoContent(http.StatusNoContent)
}
