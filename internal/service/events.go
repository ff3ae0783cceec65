package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
	"github.com/experiencias-arroyo/sierra-explora/internal/metrics"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/queue"
)

// Publisher hands an event to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Broadcaster pushes a typed message to connected admin boards.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// Events announces reservation changes.  Either sink may be nil.
type Events struct {
	pub     Publisher
	live    Broadcaster
	now     func() time.Time
	timeout time.Duration
}

func NewEvents(pub Publisher, live Broadcaster) *Events {
	return &Events{pub: pub, live: live, now: time.Now, timeout: 3 * time.Second}
}

// Created announces a new pending reservation.
func (e *Events) Created(ctx context.Context, r model.Reservation) {
	if e == nil {
		return
	}
	e.emit(ctx, queue.Created(r, e.now()), r)
}

// Transitioned announces a status change away from from.
func (e *Events) Transitioned(ctx context.Context, r model.Reservation, from model.Status, actor lifecycle.Actor) {
	if e == nil {
		return
	}
	e.emit(ctx, queue.Transitioned(r, from, actor, e.now()), r)
}

func (e *Events) emit(ctx context.Context, ev queue.ReservationEvent, r model.Reservation) {
	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"reservation_id": r.ID,
		"status":         r.Status,
		"event":          ev.Type,
	})
	if e.live != nil {
		e.live.Broadcast(string(ev.Type), r)
	}
	if e.pub == nil {
		return
	}
	// The request may finish before the broker answers.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.pub.Publish(pctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "failed").Inc()
		log.WithError(err).Warn("publish reservation event failed")
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type), "ok").Inc()
	log.Debug("reservation event published")
}
