package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"donation_platform/internal/services"
)

// Context keys set by RequireAuth
const (
	UserIDKey = "userID"
	TokenKey  = "token"
)

// BearerToken extracts the token from an Authorization header
func BearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireAuth returns a middleware that verifies the bearer token and puts
// the user id in the context
func RequireAuth(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed authorization header")
			}

			userID, err := authService.ExtractUserID(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(UserIDKey, userID)
			c.Set(TokenKey, token)
			return next(c)
		}
	}
}

// RequireAdmin must run after RequireAuth. It rejects users without the
// admin role.
func RequireAdmin(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(UserIDKey).(uint)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			role, err := authService.CheckRole(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !role.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "administrator role required")
			}

			return next(c)
		}
	}
}
