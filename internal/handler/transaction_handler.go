package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/middleware"
	"github.com/moremoney/moremoney-backend/internal/service"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest is the body of create, replace and patch requests.
// On PATCH a null categoriaId or status clears the field.
type TransactionRequest struct {
	Description optional[string]          `json:"descricao" swaggertype:"string"`
	Amount      optional[decimal.Decimal] `json:"valor" swaggertype:"string" example:"150.00"`
	Kind        optional[string]          `json:"tipo" swaggertype:"string" enums:"receita,despesa"`
	Date        optional[string]          `json:"data" swaggertype:"string" example:"2025-03-14"`
	CategoryID  optional[int32]           `json:"categoriaId" swaggertype:"integer"`
	Status      optional[string]          `json:"status" swaggertype:"string" enums:"pendente,pago,cancelado,agendado,atrasado"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID           int32   `json:"id"`
	Description  string  `json:"descricao"`
	Amount       string  `json:"valor"`
	Kind         string  `json:"tipo"`
	Date         string  `json:"data"`
	CategoryID   *int32  `json:"categoriaId"`
	CategoryName *string `json:"categoriaNome,omitempty"`
	CompanyID    *int32  `json:"empresaId"`
	UserID       int32   `json:"usuarioId"`
	Status       *string `json:"status"`
	CreatedAt    string  `json:"criadoEm"`
	UpdatedAt    string  `json:"atualizadoEm"`
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	var status *string
	if t.Status != nil {
		s := string(*t.Status)
		status = &s
	}
	return TransactionResponse{
		ID:           t.ID,
		Description:  t.Description,
		Amount:       t.Amount.StringFixed(2),
		Kind:         string(t.Kind),
		Date:         t.Date.Format(domain.DateLayout),
		CategoryID:   t.CategoryID,
		CategoryName: t.CategoryName,
		CompanyID:    t.CompanyID,
		UserID:       t.UserID,
		Status:       status,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.Format(time.RFC3339),
	}
}

// parseDate accepts a plain date or an RFC 3339 timestamp, keeping the calendar date
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(domain.DateLayout, s); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return domain.DateOnly(ts), true
	}
	return time.Time{}, false
}

// toInput converts a full request body; every required field must be present
func (r TransactionRequest) toInput() (service.TransactionInput, []ValidationError) {
	var errs []ValidationError
	required := func(set bool, null bool, field string) {
		if !set || null {
			errs = append(errs, ValidationError{Field: field, Message: "Campo obrigatório"})
		}
	}
	required(r.Description.Set, r.Description.Null(), "descricao")
	required(r.Amount.Set, r.Amount.Null(), "valor")
	required(r.Kind.Set, r.Kind.Null(), "tipo")
	required(r.Date.Set, r.Date.Null(), "data")
	if len(errs) > 0 {
		return service.TransactionInput{}, errs
	}

	date, ok := parseDate(*r.Date.Value)
	if !ok {
		return service.TransactionInput{}, []ValidationError{{Field: "data", Message: "Use o formato AAAA-MM-DD"}}
	}

	input := service.TransactionInput{
		Description: *r.Description.Value,
		Amount:      *r.Amount.Value,
		Kind:        domain.Kind(*r.Kind.Value),
		Date:        date,
		CategoryID:  r.CategoryID.Value,
	}
	if r.Status.Value != nil {
		status := domain.Status(*r.Status.Value)
		input.Status = &status
	}
	return input, nil
}

// toPatch converts a partial request body
func (r TransactionRequest) toPatch() (domain.TransactionPatch, []ValidationError) {
	var patch domain.TransactionPatch
	var errs []ValidationError
	notNull := func(null bool, field string) bool {
		if null {
			errs = append(errs, ValidationError{Field: field, Message: "Campo não pode ser nulo"})
		}
		return !null
	}

	if r.Description.Set && notNull(r.Description.Null(), "descricao") {
		patch.Description = r.Description.Value
	}
	if r.Amount.Set && notNull(r.Amount.Null(), "valor") {
		patch.Amount = r.Amount.Value
	}
	if r.Kind.Set && notNull(r.Kind.Null(), "tipo") {
		kind := domain.Kind(*r.Kind.Value)
		patch.Kind = &kind
	}
	if r.Date.Set && notNull(r.Date.Null(), "data") {
		date, ok := parseDate(*r.Date.Value)
		if !ok {
			errs = append(errs, ValidationError{Field: "data", Message: "Use o formato AAAA-MM-DD"})
		} else {
			patch.Date = &date
		}
	}
	if r.CategoryID.Set {
		patch.CategoryID = r.CategoryID.Value
		patch.ClearCategory = r.CategoryID.Null()
	}
	if r.Status.Set {
		if r.Status.Value != nil {
			status := domain.Status(*r.Status.Value)
			patch.Status = &status
		}
		patch.ClearStatus = r.Status.Null()
	}
	return patch, errs
}

// ListTransactions godoc
// @Summary List transactions
// @Description The caller's transactions, newest first
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param mes query string false "Month YYYY-MM"
// @Param inicio query string false "Range start YYYY-MM-DD"
// @Param fim query string false "Range end YYYY-MM-DD (inclusive)"
// @Param tipo query string false "receita or despesa"
// @Param categoriaId query int false "Category ID"
// @Param q query string false "Text search on description"
// @Success 200 {array} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /lancamentos [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var filters domain.TransactionFilters
	if periodToken(c) != nil {
		filters.Period = ResolveRequestPeriod(c, time.Now())
	}
	if kind := c.QueryParam("tipo"); kind != "" {
		k := domain.Kind(kind)
		filters.Kind = &k
	}
	if raw := c.QueryParam("categoriaId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return NewValidationError(c, "Invalid categoriaId", []ValidationError{{Field: "categoriaId", Message: "Must be an integer"}})
		}
		categoryID := int32(id)
		filters.CategoryID = &categoryID
	}
	filters.Search = strings.TrimSpace(c.QueryParam("q"))

	transactions, err := h.transactionService.ListTransactions(c.Request().Context(), userID, filters)
	if err != nil {
		return respondError(c, err, "Failed to list transactions")
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		response = append(response, toTransactionResponse(t))
	}
	return c.JSON(http.StatusOK, response)
}

// GetTransaction godoc
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} TransactionResponse
// @Failure 404 {object} ProblemDetails
// @Router /lancamentos/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	transaction, err := h.transactionService.GetTransaction(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "Failed to get transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Create a new income or expense transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "Transaction"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /lancamentos [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), userID, input)
	if err != nil {
		return respondCategoryRefError(c, err, "Failed to create transaction")
	}
	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// ReplaceTransaction godoc
// @Summary Replace a transaction
// @Description Overwrite every field; absent categoriaId and status are cleared
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param request body TransactionRequest true "Transaction"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /lancamentos/{id} [put]
func (h *TransactionHandler) ReplaceTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	transaction, err := h.transactionService.ReplaceTransaction(c.Request().Context(), userID, id, input)
	if err != nil {
		return respondCategoryRefError(c, err, "Failed to replace transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction godoc
// @Summary Patch a transaction
// @Description Change only the fields present in the body
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param request body TransactionRequest true "Fields to change"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /lancamentos/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	patch, errs := req.toPatch()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request().Context(), userID, id, patch)
	if err != nil {
		return respondCategoryRefError(c, err, "Failed to update transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Tags transactions
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /lancamentos/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c)
	if !ok {
		return invalidIDError(c)
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), userID, id); err != nil {
		return respondError(c, err, "Failed to delete transaction")
	}
	return c.NoContent(http.StatusNoContent)
}

// respondCategoryRefError reports an unknown categoriaId in a body as a
// validation error rather than a missing resource.
func respondCategoryRefError(c echo.Context, err error, action string) error {
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "categoriaId", Message: "Categoria não encontrada"}})
	}
	return respondError(c, err, action)
}
