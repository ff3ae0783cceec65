package handler

import (
	"context"  // bounded dependency checks
	"net/http" // status codes
	"time"     // check timeout

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is anything Health can probe; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns "ok" when every dependency answers a ping within two
// seconds and 503 otherwise.  With no dependencies it only proves the
// process is serving.
func Health(deps ...Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if err := d.PingContext(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, "unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
