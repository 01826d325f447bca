package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/middleware"
	"github.com/stretchr/testify/require"
)

// newContext builds an echo context for target; a non-empty body is sent as JSON
func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// authenticate attaches a session the way the auth middleware would
func authenticate(c echo.Context, userID int32, role domain.Role) {
	session := &auth.Session{UserID: userID, Role: role}
	c.SetRequest(c.Request().WithContext(middleware.WithSession(c.Request().Context(), session)))
}

func withID(c echo.Context, id string) {
	c.SetParamNames("id")
	c.SetParamValues(id)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func fields(problem ProblemDetails) []string {
	out := make([]string, 0, len(problem.Errors))
	for _, e := range problem.Errors {
		out = append(out, e.Field)
	}
	return out
}
