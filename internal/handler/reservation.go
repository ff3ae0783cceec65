package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/experiencias-arroyo/sierra-explora/internal/booking"
	"github.com/experiencias-arroyo/sierra-explora/internal/eligibility"
	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
	"github.com/experiencias-arroyo/sierra-explora/internal/metrics"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// ReservationStore is the persistence the reservation endpoints need;
// *repository.ReservationRepo implements it.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListAll(ctx context.Context, statuses ...model.Status) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, target model.Status, actor lifecycle.Actor) (model.Reservation, model.Status, error)
	History(ctx context.Context, id uint64) ([]model.StatusChange, error)
}

// BookableReader loads the entity a reservation is made against.
type BookableReader interface {
	GetByID(ctx context.Context, id uint64) (model.Bookable, error)
}

// ReservationNotifier is told about every accepted change after it is
// stored; *service.Events implements it.
type ReservationNotifier interface {
	Created(ctx context.Context, r model.Reservation)
	Transitioned(ctx context.Context, r model.Reservation, from model.Status, actor lifecycle.Actor)
}

// ReservationHandler serves /reservations.  Submissions are rebuilt into
// a draft and checked with Policy before anything is stored, so the
// server enforces the same rules the client checks locally.
type ReservationHandler struct {
	Reservations ReservationStore
	Bookables    BookableReader
	Events       ReservationNotifier
	Policy       eligibility.Policy
	Now          func() time.Time
}

func NewReservationHandler(res ReservationStore, bookables BookableReader, events ReservationNotifier, policy eligibility.Policy) *ReservationHandler {
	return &ReservationHandler{Reservations: res, Bookables: bookables, Events: events, Policy: policy, Now: time.Now}
}

type statusReq struct {
	Status string `json:"status"`
}

// Create handles POST /reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "Inicia sesión para reservar")
	}
	var body booking.Submission
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, codeBadRequest, "Cuerpo de solicitud inválido")
	}
	if body.ServiceID == 0 {
		return fail(c, http.StatusBadRequest, codeBadRequest, "serviceId es obligatorio")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	entity, err := h.Bookables.GetByID(ctx, body.ServiceID)
	if err != nil {
		return respondError(c, err)
	}
	draft := booking.FromSubmission(entity, body)
	if err := draft.Validate(h.Policy, h.Now()); err != nil {
		if ve, ok := eligibility.AsValidation(err); ok {
			metrics.EligibilityRejections.WithLabelValues(ve.Code).Inc()
		}
		return respondError(c, err)
	}

	sub := draft.Submission()
	res := model.Reservation{
		UserID:      uid,
		ServiceID:   entity.ID,
		ServiceName: entity.Name,
		ServiceKind: entity.Kind,
		Date:        sub.Date,
		Time:        sub.Time,
		PartySize:   sub.PartySize,
		Comments:    sub.Comments,
		Status:      model.StatusPending,
	}
	if name := middleware.CurrentName(c); name != "" {
		res.CustomerName = &name
	}
	if err := h.Reservations.Create(ctx, &res); err != nil {
		return respondError(c, err)
	}
	metrics.ReservationsCreated.WithLabelValues(string(res.ServiceKind)).Inc()
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"service_id":     res.ServiceID,
		"slot":           res.Date + " " + res.Time,
	}).Info("reservation created")
	if h.Events != nil {
		h.Events.Created(ctx, res)
	}
	return c.JSON(http.StatusCreated, res)
}

// Mine handles GET /reservations/mine: the caller's reservations, newest first.
func (h *ReservationHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "Inicia sesión para ver tus reservaciones")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	list, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// All handles GET /reservations for admins.  ?status= takes a comma
// separated list of statuses; unknown values are a 400.
func (h *ReservationHandler) All(c echo.Context) error {
	var statuses []model.Status
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		parts := lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
			return strings.ToLower(strings.TrimSpace(s))
		}))
		for _, p := range parts {
			st, ok := model.ParseStatus(p)
			if !ok {
				return fail(c, http.StatusBadRequest, codeBadRequest, "Estado desconocido: "+p)
			}
			statuses = append(statuses, st)
		}
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	list, err := h.Reservations.ListAll(ctx, statuses...)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /reservations/:id.  Users only see their own.
func (h *ReservationHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "Sesión inválida")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "id inválido")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if !actor.Admin && res.UserID != actor.UserID {
		// Not revealing other users' reservations.
		return fail(c, http.StatusNotFound, codeNotFound, "Recurso no encontrado")
	}
	return c.JSON(http.StatusOK, res)
}

// SetStatus handles PATCH /reservations/:id/status with {"status": ...}.
// Admins may confirm or cancel pending reservations; owners may cancel
// their own pending ones.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "Sesión inválida")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "id inválido")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeBadRequest, "Cuerpo de solicitud inválido")
	}
	target, ok := model.ParseStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "Estado desconocido")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	res, from, err := h.Reservations.UpdateStatus(ctx, id, target, actor)
	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"reservation_id": id,
		"status":         target,
		"actor":          actor.Role(),
	})
	if err != nil {
		log.WithError(err).Info("status change refused")
		return respondError(c, err)
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(res.Status), actor.Role()).Inc()
	log.WithField("from", from).Info("reservation status changed")
	if h.Events != nil {
		h.Events.Transitioned(ctx, res, from, actor)
	}
	return c.JSON(http.StatusOK, res)
}

// History handles GET /reservations/:id/history for admins.
func (h *ReservationHandler) History(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, codeBadRequest, "id inválido")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if _, err := h.Reservations.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	changes, err := h.Reservations.History(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, changes)
}
