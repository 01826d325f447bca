package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// SessionKey is the context key for the validated session
	SessionKey contextKey = "session"
)

// SessionValidator checks a bearer token and returns the session it carries
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Session, error)
}

// AuthMiddleware provides session token validation middleware
type AuthMiddleware struct {
	validator SessionValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator SessionValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate returns an Echo middleware that rejects requests without a valid session
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			session, err := m.validator.ValidateToken(c.Request().Context(), token)
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "Invalid or expired token")
			}

			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), session)))

			return next(c)
		}
	}
}

// RequireRole returns a middleware that only lets sessions with one of roles through.
// It must run after Authenticate.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return unauthorizedError(c, "Authentication required")
			}
			for _, role := range roles {
				if session.Role == role {
					return next(c)
				}
			}
			log.Debug().Int32("user_id", session.UserID).Str("role", string(session.Role)).Msg("Role not allowed")
			return forbiddenError(c, "Insufficient permissions")
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetSession extracts the validated session from the context
func GetSession(c echo.Context) *auth.Session {
	if session, ok := c.Request().Context().Value(SessionKey).(*auth.Session); ok {
		return session
	}
	return nil
}

// GetUserID extracts the session's user id from the context; 0 when unauthenticated
func GetUserID(c echo.Context) int32 {
	if session := GetSession(c); session != nil {
		return session.UserID
	}
	return 0
}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}
