package router

import (
	"github.com/labstack/echo/v4"

	"github.com/experiencias-arroyo/sierra-explora/internal/handler"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// RegisterCatalog registers the public catalog behind the response cache
// and the admin CRUD that purges it.
func RegisterCatalog(e *echo.Echo, b *handler.BookableHandler, cache *middleware.ResponseCache, jwtSecret string) {
	pub := e.Group("/bookables", cache.Middleware())
	pub.GET("", b.List)
	pub.GET("/:id", b.Get)

	admin := e.Group(
		"/admin/bookables",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("", b.Create)
	admin.PUT("/:id", b.Update)
	admin.DELETE("/:id", b.Delete)
}

// RegisterFavorites registers the per-user saved entities.
func RegisterFavorites(e *echo.Echo, f *handler.FavoriteHandler, jwtSecret string) {
	g := e.Group("/favorites", middleware.JWTAuth(jwtSecret))
	g.GET("", f.List)
	g.POST("/:bookableId", f.Add)
	g.DELETE("/:bookableId", f.Remove)
}
