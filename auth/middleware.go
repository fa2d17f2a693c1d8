package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the authenticated user id.
const UserIDKey = "user_id"

// Middleware authenticates requests via a Bearer token and injects the
// caller's user id into the request context. Downstream handlers trust
// this identity completely.
func Middleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}

			userID, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// CallerID returns the authenticated user id from the echo context. Empty
// when the request did not pass through Middleware.
func CallerID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
