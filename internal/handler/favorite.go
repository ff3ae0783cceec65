package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// FavoriteStore is implemented by *repository.FavoriteRepo.
type FavoriteStore interface {
	List(ctx context.Context, userID uint64) ([]model.Bookable, error)
	Add(ctx context.Context, userID, bookableID uint64) error
	Remove(ctx context.Context, userID, bookableID uint64) error
}

type FavoriteHandler struct {
	Favorites FavoriteStore
}

func NewFavoriteHandler(store FavoriteStore) *FavoriteHandler {
	return &FavoriteHandler{Favorites: store}
}

// List handles GET /favorites.
func (h *FavoriteHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "Sesión inválida")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	list, err := h.Favorites.List(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lo.Map(list, func(b model.Bookable, _ int) bookableDTO { return toBookableDTO(b) }))
}

// Add handles POST /favorites/:bookableId.  Repeating it is harmless.
func (h *FavoriteHandler) Add(c echo.Context) error {
	return h.change(c, http.StatusCreated, h.Favorites.Add)
}

// Remove handles DELETE /favorites/:bookableId.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	return h.change(c, http.StatusNoContent, h.Favorites.Remove)
}

func (h *FavoriteHandler) change(c echo.Context, status int, op func(context.Context, uint64, uint64) error) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "Sesión inválida")
	}
	bid, ok := parseID(c, "bookableId")
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "bookableId inválido")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := op(ctx, uid, bid); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(status)
}
