package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
)

// RequestLogger assigns every request an ID (reusing an incoming
// X-Request-ID), stores a logrus entry carrying it in the request context
// and logs one line per request once the handler returns.
func RequestLogger(base *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			entry := base.WithField("request_id", id)
			c.SetRequest(req.WithContext(logging.ToContext(req.Context(), entry)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":   req.Method,
				"route":    c.Path(),
				"status":   c.Response().Status,
				"duration": time.Since(start).String(),
			}
			if id, ok := CurrentUser(c); ok {
				fields["user_id"] = id
			}
			switch s := c.Response().Status; {
			case s >= 500:
				entry.WithFields(fields).WithError(err).Error("request failed")
			case s >= 400:
				entry.WithFields(fields).Info("request rejected")
			default:
				entry.WithFields(fields).Debug("request served")
			}
			return nil
		}
	}
}
