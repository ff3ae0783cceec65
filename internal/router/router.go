// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/experiencias-arroyo/sierra-explora/internal/handler"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// the health check and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, deps ...handler.Pinger) {
	e.GET("/healthz", handler.Health(deps...))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the token endpoints.  Register, login and refresh
// need no session; logout and /me run behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	authed := middleware.JWTAuth(jwtSecret)
	g.POST("/logout", a.Logout, authed)
	e.GET("/me", a.Me, authed)
}
