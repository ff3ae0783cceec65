package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/repository"
)

func newCatalog() (*echo.Echo, *fakeBookables, *countingPurger) {
	store, purger := newFakeBookables(tour(), concert()), &countingPurger{}
	h := NewBookableHandler(store, purger)
	e := echo.New()
	e.GET("/bookables", h.List)
	e.GET("/bookables/:id", h.Get)
	admin := e.Group("/admin/bookables", middleware.JWTAuth(testSecret), middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
	return e, store, purger
}

func TestListBookables(t *testing.T) {
	e, _, _ := newCatalog()

	rec := do(e, http.MethodGet, "/bookables", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []bookableDTO
	decodeBody(t, rec.Body.Bytes(), &all)
	require.Len(t, all, 2)
	assert.Equal(t, "Lunes a Viernes, 9:00 AM - 6:00 PM", all[0].Schedule)
	assert.Empty(t, all[0].EventDate)
	assert.Equal(t, "20:00", all[1].EventTime)
	assert.Empty(t, all[1].DayStart)

	rec = do(e, http.MethodGet, "/bookables?kind=event", "", "")
	var events []bookableDTO
	decodeBody(t, rec.Body.Bytes(), &events)
	require.Len(t, events, 1)
	assert.Equal(t, model.KindEvent, events[0].Kind)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/bookables?kind=museum", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/bookables/77", "", "").Code)
}

func TestAdminBookableCRUDPurgesCache(t *testing.T) {
	e, store, purger := newCatalog()
	admin := bearer(t, adminID, model.RoleAdmin)

	rec := do(e, http.MethodPost, "/admin/bookables", admin,
		`{"kind":"attraction","name":" Mirador ","price":120.5,"dayStart":"sabado","dayEnd":"Domingo","timeStart":"10:00 AM","timeEnd":"05:00 PM"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created bookableDTO
	decodeBody(t, rec.Body.Bytes(), &created)
	assert.Equal(t, "Mirador", created.Name)
	assert.Equal(t, 120.5, created.Price)
	assert.Equal(t, uint32(12050), store.rows[created.ID].PriceCents)
	assert.Equal(t, 1, purger.n)

	rec = do(e, http.MethodPut, "/admin/bookables/1", admin,
		`{"kind":"service","name":"Tour Cascada Plus","dayStart":"Lunes","dayEnd":"Lunes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Tour Cascada Plus", store.rows[1].Name)
	assert.Equal(t, 2, purger.n)

	rec = do(e, http.MethodPut, "/admin/bookables/1", admin, `{"kind":"event","name":"x","eventDate":"2026-01-01","eventTime":"10:00"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "kind is immutable")

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/admin/bookables/2", admin, "").Code)
	assert.Equal(t, 3, purger.n)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/admin/bookables/2", admin, "").Code)

	user := bearer(t, ownerID, model.RoleUser)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodDelete, "/admin/bookables/1", user, "").Code)
}

func TestBookableRequestValidation(t *testing.T) {
	cases := map[string]string{
		"kind":          `{"kind":"museum","name":"x"}`,
		"name":          `{"kind":"service","name":"  "}`,
		"price":         `{"kind":"service","name":"x","price":-1}`,
		"tickets":       `{"kind":"service","name":"x","ticketsAvailable":-3}`,
		"event date":    `{"kind":"event","name":"x","eventDate":"24/12/2025","eventTime":"20:00"}`,
		"event time":    `{"kind":"event","name":"x","eventDate":"2025-12-24","eventTime":"late"}`,
		"unknown day":   `{"kind":"service","name":"x","dayStart":"Funday"}`,
		"bad open time": `{"kind":"service","name":"x","timeStart":"25:00"}`,
	}
	e, _, purger := newCatalog()
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/admin/bookables", bearer(t, adminID, model.RoleAdmin), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Zero(t, purger.n)
}

func TestEventRequestNormalizesTime(t *testing.T) {
	b, msg := bookableReq{Kind: "event", Name: "Gala", EventDate: "2025-12-31", EventTime: "09:30 PM"}.toModel()
	require.Empty(t, msg)
	assert.Equal(t, model.FixedSlot{Date: "2025-12-31", Time: "21:30"}, b.Slot())
	assert.Nil(t, b.Weekly)
}

type fakeFavorites struct{ saved map[uint64][]uint64 }

func (f *fakeFavorites) List(_ context.Context, userID uint64) ([]model.Bookable, error) {
	out := []model.Bookable{}
	for _, id := range f.saved[userID] {
		out = append(out, model.Bookable{ID: id, Kind: model.KindService, Name: "fav"})
	}
	return out, nil
}

func (f *fakeFavorites) Add(_ context.Context, userID, bookableID uint64) error {
	if bookableID > 100 {
		return repository.ErrNotFound
	}
	f.saved[userID] = append(f.saved[userID], bookableID)
	return nil
}

func (f *fakeFavorites) Remove(_ context.Context, userID, bookableID uint64) error {
	ids := f.saved[userID]
	for i, id := range ids {
		if id == bookableID {
			f.saved[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func TestFavorites(t *testing.T) {
	h := NewFavoriteHandler(&fakeFavorites{saved: map[uint64][]uint64{}})
	e := echo.New()
	g := e.Group("/favorites", middleware.JWTAuth(testSecret))
	g.GET("", h.List)
	g.POST("/:bookableId", h.Add)
	g.DELETE("/:bookableId", h.Remove)
	user := bearer(t, ownerID, model.RoleUser)

	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/favorites/3", user, "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/favorites/300", user, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/favorites/zero", user, "").Code)

	rec := do(e, http.MethodGet, "/favorites", user, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"id":3`))

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/favorites/3", user, "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/favorites/3", user, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/favorites", "", "").Code)
}
