// Package handler holds the echo handlers for auth, the catalog, favorites
// and reservations.
package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
)

// storeTimeout bounds the DB work of one handler.
const storeTimeout = 5 * time.Second

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	// JWTAuth stores uint64; the other forms come from hand-built contexts.
	switch t := c.Get(middleware.KeyUserID).(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actorFrom builds the lifecycle actor for the authenticated caller.
func actorFrom(c echo.Context) (lifecycle.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	return lifecycle.Actor{UserID: id, Admin: middleware.IsAdmin(c)}, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// storeCtx bounds the DB work done for one request.
func storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}
