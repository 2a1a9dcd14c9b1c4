package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ociferry/ferry-booking/internal/api/middleware"
	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// ctxSession extracts the session injected by the Auth middleware and
// performs a fast-fail check before any service call: the session must carry
// an identity, otherwise the request never went through Auth.
func ctxSession(c echo.Context) (domain.Session, error) {
	s, ok := c.Get(middleware.ContextSession).(domain.Session)
	if !ok || !s.Authenticated() {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return s, nil
}

func ctxToken(c echo.Context) string {
	token, _ := c.Get(middleware.ContextToken).(string)
	return token
}

// bindAndValidate binds the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
