package middleware

import "github.com/labstack/echo/v4"

// Keys under which request-scoped identity and tracing values are stored on
// the echo context.
const (
	ContextKeyUserID    = "auth.user_id"
	ContextKeyUserEmail = "auth.user_email"
	ContextKeyUserRole  = "auth.user_role"
	ContextKeyRequestID = "trace.request_id"
)

func contextString(c echo.Context, key string) string {
	val, _ := c.Get(key).(string)
	return val
}

// UserRoleFromContext returns the authenticated role, or "" when the request
// did not pass the JWT middleware.
func UserRoleFromContext(c echo.Context) string {
	return contextString(c, ContextKeyUserRole)
}

// RequestIDFromContext returns the request identifier, or "" when absent.
func RequestIDFromContext(c echo.Context) string {
	return contextString(c, ContextKeyRequestID)
}
