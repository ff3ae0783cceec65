// Package middleware holds the echo middleware for auth, caching, rate
// limiting and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/experiencias-arroyo/sierra-explora/internal/utils"
)

// JWTAuth validates a Bearer access token and injects the token's subject,
// role and display name into the request context (see identity.go).  The
// secret must match the one used when issuing tokens.
//
// Browsers cannot set headers on a websocket handshake, so when the
// Authorization header is absent the access_token query parameter is
// accepted instead.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid token"})
			}
			id, _ := claims.UserID() // ParseAccessToken already checked the subject
			c.Set(KeyUserID, id)
			c.Set(KeyRole, claims.Role)
			c.Set(KeyName, claims.Name)
			return next(c)
		}
	}
}

func bearer(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if !strings.HasPrefix(auth, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.QueryParam("access_token")
}
