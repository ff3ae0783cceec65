package router

import (
	"github.com/labstack/echo/v4"

	"github.com/experiencias-arroyo/sierra-explora/internal/handler"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// RegisterReservations registers the reservation endpoints.  Every route
// needs a JWT; listing everything and reading history is admin only.
// Ownership on single reservations is checked in the handler.  limiter
// guards creation and runs after JWTAuth so it can key on the user.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, limiter echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group("/reservations", middleware.JWTAuth(jwtSecret))
	admin := middleware.RequireRole(model.RoleAdmin)

	g.POST("", h.Create, limiter)
	g.GET("/mine", h.Mine)
	g.GET("", h.All, admin)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/status", h.SetStatus)
	g.GET("/:id/history", h.History, admin)
}

// RegisterLiveFeed mounts the admin websocket.  Browsers cannot set
// headers on the upgrade request, so JWTAuth also accepts the token in
// the access_token query parameter.
func RegisterLiveFeed(e *echo.Echo, ws echo.HandlerFunc, jwtSecret string) {
	e.GET("/admin/reservations/ws", ws,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
}
