package middleware

// Context keys written by JWTAuth and read by handlers and the rate
// limiter.  Values are typed: user_id is uint64, role and name are strings.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyName   = "name"
)

// CurrentUser returns the authenticated user ID.  The second value is
// false on routes not behind JWTAuth.
func CurrentUser(c echo.Context) (uint64, bool) {
	id, ok := c.Get(KeyUserID).(uint64)
	return id, ok && id != 0
}

// CurrentRole returns the role claim, or "" when unauthenticated.
func CurrentRole(c echo.Context) string {
	r, _ := c.Get(KeyRole).(string)
	return r
}

// CurrentName returns the display name claim.
func CurrentName(c echo.Context) string {
	n, _ := c.Get(KeyName).(string)
	return n
}

// IsAdmin reports whether the caller holds the ADMIN role.
func IsAdmin(c echo.Context) bool { return CurrentRole(c) == model.RoleAdmin }

// userKey renders the caller for cache and rate limit keys.
func userKey(c echo.Context) string {
	if id, ok := CurrentUser(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
