package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole gates a route group on the role claim set by the JWT
// middleware. Requests without a role, or with a different one, get 403.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := UserRoleFromContext(c)
			switch {
			case got == "":
				return c.JSON(http.StatusForbidden, map[string]string{"error": "missing role"})
			case got != role:
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
