package handler

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/schedule"
)

// BookableStore is the catalog persistence; *repository.BookableRepo
// implements it.
type BookableStore interface {
	BookableReader
	List(ctx context.Context, kind model.Kind) ([]model.Bookable, error)
	Create(ctx context.Context, b *model.Bookable) error
	Update(ctx context.Context, b *model.Bookable) error
	Delete(ctx context.Context, id uint64) error
}

// CachePurger drops cached catalog responses.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// BookableHandler serves the public catalog and its admin CRUD.
type BookableHandler struct {
	Bookables BookableStore
	Cache     CachePurger
}

func NewBookableHandler(store BookableStore, cache CachePurger) *BookableHandler {
	return &BookableHandler{Bookables: store, Cache: cache}
}

// ----- DTOs -----

// bookableDTO is the public shape.  Only the schedule fields matching the
// kind are present; schedule is the human summary shown on cards.
type bookableDTO struct {
	ID               uint64     `json:"id"`
	Kind             model.Kind `json:"kind"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	Price            float64    `json:"price"`
	TicketsAvailable *int       `json:"ticketsAvailable"`
	EventDate        string     `json:"eventDate,omitempty"`
	EventTime        string     `json:"eventTime,omitempty"`
	DayStart         string     `json:"dayStart,omitempty"`
	DayEnd           string     `json:"dayEnd,omitempty"`
	TimeStart        string     `json:"timeStart,omitempty"`
	TimeEnd          string     `json:"timeEnd,omitempty"`
	Schedule         string     `json:"schedule"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func toBookableDTO(b model.Bookable) bookableDTO {
	dto := bookableDTO{
		ID:               b.ID,
		Kind:             b.Kind,
		Name:             b.Name,
		Description:      b.Description,
		Location:         b.Location,
		Price:            float64(b.PriceCents) / 100,
		TicketsAvailable: b.TicketsAvailable,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.IsEvent() {
		slot := b.Slot()
		dto.EventDate, dto.EventTime = slot.Date, schedule.NormalizeToHHMM(slot.Time)
		dto.Schedule = strings.TrimSpace(dto.EventDate + " " + dto.EventTime)
		return dto
	}
	w := b.Window()
	dto.DayStart, dto.DayEnd, dto.TimeStart, dto.TimeEnd = w.DayStart, w.DayEnd, w.TimeStart, w.TimeEnd
	dto.Schedule = schedule.AllowedDaysMessage(w.DayStart, w.DayEnd) + ", " + schedule.HoursMessage(w.TimeStart, w.TimeEnd)
	return dto
}

type bookableReq struct {
	Kind             string  `json:"kind"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Location         string  `json:"location"`
	Price            float64 `json:"price"`
	TicketsAvailable *int    `json:"ticketsAvailable"`
	EventDate        string  `json:"eventDate"`
	EventTime        string  `json:"eventTime"`
	DayStart         string  `json:"dayStart"`
	DayEnd           string  `json:"dayEnd"`
	TimeStart        string  `json:"timeStart"`
	TimeEnd          string  `json:"timeEnd"`
}

// toModel checks the request and returns the entity, or a message for a
// 400 response.  Schedule values must parse when present; validation of
// reservations stays permissive for legacy rows that do not.
func (r bookableReq) toModel() (model.Bookable, string) {
	kind, ok := model.ParseKind(r.Kind)
	if !ok {
		return model.Bookable{}, "kind debe ser service, attraction o event"
	}
	b := model.Bookable{
		Kind:             kind,
		Name:             strings.TrimSpace(r.Name),
		Description:      strings.TrimSpace(r.Description),
		Location:         strings.TrimSpace(r.Location),
		TicketsAvailable: r.TicketsAvailable,
	}
	if b.Name == "" {
		return model.Bookable{}, "name es obligatorio"
	}
	if r.Price < 0 || r.Price > math.MaxUint32/100 {
		return model.Bookable{}, "price fuera de rango"
	}
	b.PriceCents = uint32(math.Round(r.Price * 100))
	if r.TicketsAvailable != nil && *r.TicketsAvailable < 0 {
		return model.Bookable{}, "ticketsAvailable no puede ser negativo"
	}

	if kind == model.KindEvent {
		if _, ok := schedule.ParseDate(strings.TrimSpace(r.EventDate)); !ok {
			return model.Bookable{}, "eventDate debe tener formato YYYY-MM-DD"
		}
		m, ok := schedule.ParseToMinutes(strings.TrimSpace(r.EventTime))
		if !ok {
			return model.Bookable{}, "eventTime inválido"
		}
		b.Resolve(model.FixedSlot{Date: r.EventDate, Time: schedule.FormatMinutesHHMM(m)}, model.WeeklyWindow{})
		return b, ""
	}

	for _, d := range []string{r.DayStart, r.DayEnd} {
		if d = strings.TrimSpace(d); d != "" {
			if _, ok := schedule.WeekdayIndex(d); !ok {
				return model.Bookable{}, "día desconocido: " + d
			}
		}
	}
	for _, t := range []string{r.TimeStart, r.TimeEnd} {
		if t = strings.TrimSpace(t); t != "" {
			if _, ok := schedule.ParseToMinutes(t); !ok {
				return model.Bookable{}, "horario inválido: " + t
			}
		}
	}
	b.Resolve(model.FixedSlot{}, model.WeeklyWindow{
		DayStart: r.DayStart, DayEnd: r.DayEnd, TimeStart: r.TimeStart, TimeEnd: r.TimeEnd,
	})
	return b, ""
}

// List handles GET /bookables?kind=.
func (h *BookableHandler) List(c echo.Context) error {
	var kind model.Kind
	if raw := c.QueryParam("kind"); raw != "" {
		k, ok := model.ParseKind(raw)
		if !ok {
			return fail(c, http.StatusBadRequest, codeBadRequest, "kind debe ser service, attraction o event")
		}
		kind = k
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	list, err := h.Bookables.List(ctx, kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lo.Map(list, func(b model.Bookable, _ int) bookableDTO { return toBookableDTO(b) }))
}

// Get handles GET /bookables/:id.
func (h *BookableHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "id inválido")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	b, err := h.Bookables.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookableDTO(b))
}

// Create handles POST /admin/bookables.
func (h *BookableHandler) Create(c echo.Context) error {
	var req bookableReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeBadRequest, "Cuerpo de solicitud inválido")
	}
	b, msg := req.toModel()
	if msg != "" {
		return fail(c, http.StatusBadRequest, codeBadRequest, msg)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Bookables.Create(ctx, &b); err != nil {
		return respondError(c, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, toBookableDTO(b))
}

// Update handles PUT /admin/bookables/:id.  The kind cannot change.
func (h *BookableHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "id inválido")
	}
	var req bookableReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeBadRequest, "Cuerpo de solicitud inválido")
	}
	b, msg := req.toModel()
	if msg != "" {
		return fail(c, http.StatusBadRequest, codeBadRequest, msg)
	}
	b.ID = id
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Bookables.Update(ctx, &b); err != nil {
		return respondError(c, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, toBookableDTO(b))
}

// Delete handles DELETE /admin/bookables/:id.
func (h *BookableHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "id inválido")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Bookables.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	h.purge(ctx)
	return c.NoContent(http.StatusNoContent)
}

func (h *BookableHandler) purge(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(ctx); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("catalog cache purge failed")
	}
}
