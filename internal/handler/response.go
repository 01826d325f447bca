package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://moremoney.app/errors/validation"
	ErrorTypeNotFound     = "https://moremoney.app/errors/not-found"
	ErrorTypeUnauthorized = "https://moremoney.app/errors/unauthorized"
	ErrorTypeConflict     = "https://moremoney.app/errors/conflict"
	ErrorTypeRateLimit    = "https://moremoney.app/errors/rate-limit"
	ErrorTypeInternal     = "https://moremoney.app/errors/internal"
)

func newProblem(c echo.Context, status int, errorType, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return newProblem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// fieldErrors maps domain validation errors to the request field they concern
var fieldErrors = []struct {
	err   error
	field string
	msg   string
}{
	{domain.ErrDescriptionRequired, "descricao", "Descrição é obrigatória"},
	{domain.ErrDescriptionTooLong, "descricao", "Descrição deve ter no máximo 255 caracteres"},
	{domain.ErrInvalidAmount, "valor", "Valor deve ser positivo e no máximo 9999999999.99"},
	{domain.ErrInvalidKind, "tipo", "Tipo deve ser receita ou despesa"},
	{domain.ErrInvalidStatus, "status", "Status inválido"},
	{domain.ErrDateRequired, "data", "Data é obrigatória"},
	{domain.ErrCategoryKindMismatch, "categoriaId", "Categoria não corresponde ao tipo do lançamento"},
	{domain.ErrNameRequired, "nome", "Nome é obrigatório"},
	{domain.ErrNameTooLong, "nome", "Nome deve ter no máximo 255 caracteres"},
	{domain.ErrInvalidEmail, "email", "Email inválido"},
	{domain.ErrInvalidRole, "tipoUsuario", "Tipo de usuário inválido"},
	{domain.ErrPasswordTooShort, "senha", "Senha deve ter pelo menos 8 caracteres"},
	{domain.ErrPasswordTooLong, "senha", "Senha deve ter no máximo 72 bytes"},
	{domain.ErrPasswordUnchanged, "senha", "A nova senha deve ser diferente da atual"},
	{domain.ErrInvalidRecoveryToken, "token", "Token inválido ou expirado"},
	{domain.ErrInvalidTaxID, "cnpj", "CNPJ deve ter 14 dígitos"},
}

// respondError converts a service error into the matching problem response.
// Unknown errors are logged and answered with 500.
func respondError(c echo.Context, err error, action string) error {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{{Field: fe.field, Message: fe.msg}})
		}
	}

	switch {
	case errors.Is(err, domain.ErrEmptyPatch):
		return NewValidationError(c, "No fields to update", nil)
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Lançamento não encontrado")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Categoria não encontrada")
	case errors.Is(err, domain.ErrCompanyNotFound):
		return NewNotFoundError(c, "Empresa não encontrada")
	case errors.Is(err, domain.ErrUserNotFound):
		return NewNotFoundError(c, "Usuário não encontrado")
	case errors.Is(err, domain.ErrEmailTaken):
		return NewConflictError(c, "Email já cadastrado")
	case errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, "Registro já existe")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return NewUnauthorizedError(c, "Email ou senha inválidos")
	}

	log.Error().Err(err).Str("path", c.Path()).Msg(action)
	return NewInternalError(c, action)
}

// parseID reads the :id path parameter
func parseID(c echo.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func invalidIDError(c echo.Context) error {
	return NewValidationError(c, "Invalid ID", []ValidationError{{Field: "id", Message: "Must be a positive integer"}})
}
