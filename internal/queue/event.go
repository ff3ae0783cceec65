// Package queue defines the reservation event payload exchanged over the
// message broker and the consumer that turns it into an audit log.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// QueueName is the durable queue reservation events are published to.
const QueueName = "reservations.events"

type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventConfirmed EventType = "reservation.confirmed"
	EventCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is created or changes
// status.  It carries enough of the record for consumers to log or react
// without querying the primary database.  MessageID is unique per event.
type ReservationEvent struct {
	MessageID     string       `json:"message_id"`
	Type          EventType    `json:"type"`
	ReservationID uint64       `json:"reservation_id"`
	UserID        uint64       `json:"user_id"`
	ServiceID     uint64       `json:"service_id"`
	ServiceName   string       `json:"service_name"`
	ServiceKind   model.Kind   `json:"service_kind"`
	Date          string       `json:"date"`
	Time          string       `json:"time"`
	PartySize     int          `json:"party_size"`
	From          model.Status `json:"from,omitempty"`
	Status        model.Status `json:"status"`
	ActorID       uint64       `json:"actor_id"`
	ActorRole     string       `json:"actor_role"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

func newEvent(t EventType, r model.Reservation, actor lifecycle.Actor, at time.Time) ReservationEvent {
	return ReservationEvent{
		MessageID:     uuid.NewString(),
		Type:          t,
		ReservationID: r.ID,
		UserID:        r.UserID,
		ServiceID:     r.ServiceID,
		ServiceName:   r.ServiceName,
		ServiceKind:   r.ServiceKind,
		Date:          r.Date,
		Time:          r.Time,
		PartySize:     r.PartySize,
		Status:        r.Status,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role(),
		OccurredAt:    at.UTC(),
	}
}

// Created describes a freshly stored reservation; the owner is the actor.
func Created(r model.Reservation, at time.Time) ReservationEvent {
	return newEvent(EventCreated, r, lifecycle.Actor{UserID: r.UserID}, at)
}

// Transitioned describes a status change from one status to r.Status.
func Transitioned(r model.Reservation, from model.Status, actor lifecycle.Actor, at time.Time) ReservationEvent {
	t := EventCancelled
	if r.Status == model.StatusConfirmed {
		t = EventConfirmed
	}
	ev := newEvent(t, r, actor, at)
	ev.From = from
	return ev
}

// LogLine renders the event as one audit log line.
func (e ReservationEvent) LogLine() string {
	line := fmt.Sprintf("[%s] %s | reservation_id=%d | user_id=%d | service=%q (%s #%d) | slot=%s %s | party=%d | status=%s",
		e.OccurredAt.Format(time.RFC3339), e.Type, e.ReservationID, e.UserID,
		e.ServiceName, e.ServiceKind, e.ServiceID, e.Date, e.Time, e.PartySize, e.Status)
	if e.From != "" {
		line += fmt.Sprintf(" | from=%s | actor=%s#%d", e.From, e.ActorRole, e.ActorID)
	}
	return line + " | message_id=" + e.MessageID + "\n"
}
