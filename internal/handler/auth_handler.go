package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/middleware"
	"github.com/moremoney/moremoney-backend/internal/service"
)

// passwordResetRequestedMessage is returned whether or not the address has an account
const passwordResetRequestedMessage = "Se o email estiver cadastrado, você receberá um link para redefinir a senha"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService     *service.AuthService
	passwordService *service.PasswordService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, passwordService *service.PasswordService) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		passwordService: passwordService,
	}
}

// LoginRequest is the body of a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// LoginResponse carries a session token and its owner
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiraEm"`
	User      *domain.User `json:"usuario"`
}

// PasswordResetRequest starts password recovery
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// NewPasswordRequest completes password recovery
type NewPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"senha"`
}

// MessageResponse is a plain confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// Login godoc
// @Summary Log in
// @Description Exchange email and password for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return NewValidationError(c, "Email e senha são obrigatórios", nil)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "Failed to log in")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      result.User,
	})
}

// Me godoc
// @Summary Current user
// @Description Returns the user behind the session token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} ProblemDetails
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewUnauthorizedError(c, "User no longer exists")
		}
		return respondError(c, err, "Failed to get current user")
	}
	return c.JSON(http.StatusOK, user)
}

// RequestPasswordReset godoc
// @Summary Request a password reset
// @Description Mails a recovery link when the address has an account; the answer is the same either way
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ProblemDetails
// @Router /auth/recuperar-senha [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.passwordService.RequestReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err, "Failed to request password reset")
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: passwordResetRequestedMessage})
}

// ResetPassword godoc
// @Summary Set a new password
// @Description Consumes a recovery token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body NewPasswordRequest true "Token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ProblemDetails
// @Router /auth/alterar-senha [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req NewPasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.passwordService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return respondError(c, err, "Failed to reset password")
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Senha alterada com sucesso"})
}
