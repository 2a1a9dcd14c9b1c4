package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextSession   = "session"
	ContextToken     = "token"
	ContextAccountID = "account_id"
	ContextEmail     = "email"
	ContextRole      = "role"
)

// SessionAttacher resolves a bearer token to a session.
type SessionAttacher interface {
	Attach(ctx context.Context, token string) (domain.Session, error)
}

// Auth resolves the bearer token through the session registry and injects the
// session into the echo context.
func Auth(sessions SessionAttacher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			token := strings.TrimSpace(parts[1])

			s, err := sessions.Attach(c.Request().Context(), token)
			if err != nil {
				var ae *domain.AuthError
				if errors.As(err, &ae) && ae.Code != domain.AuthUnavailable {
					return echo.NewHTTPError(http.StatusUnauthorized, ae.Message)
				}
				if errors.Is(err, domain.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			c.Set(ContextSession, s)
			c.Set(ContextToken, token)
			c.Set(ContextAccountID, s.Identity.ID)
			c.Set(ContextEmail, s.Identity.Email)
			c.Set(ContextRole, string(s.Role()))

			return next(c)
		}
	}
}
