package model

import "time"

// Status is the lifecycle state of a persisted reservation.  Values are
// lowercase because they travel verbatim in the public JSON contract.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus returns the Status for s and false when s is not a known
// status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, true
	}
	return "", false
}

// Reservation records a user's booking of a bookable entity.  ServiceName
// and ServiceKind are copied from the entity at creation so the record
// stays readable after the entity is edited or removed.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user who made the reservation.
//  CustomerName – display name of the user, assigned from the session.
//  ServiceID    – reserved bookable entity.
//  Date         – "YYYY-MM-DD".
//  Time         – "HH:mm".
//  PartySize    – number of people, 1–20.
//  Comments     – free text, at most 500 characters.
//  Status       – pending, confirmed or cancelled.
type Reservation struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"userId"`
	CustomerName *string   `json:"customerName,omitempty"`
	ServiceID    uint64    `json:"serviceId"`
	ServiceName  string    `json:"serviceName"`
	ServiceKind  Kind      `json:"serviceKind"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	PartySize    int       `json:"partySize"`
	Comments     string    `json:"comments"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StatusChange is one row of `reservation_status_history`.  A change is
// written in the same transaction as the status update it describes.
type StatusChange struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"reservationId"`
	FromStatus    Status    `json:"from"`
	ToStatus      Status    `json:"to"`
	ActorID       uint64    `json:"actorId"`
	ActorRole     string    `json:"actorRole"`
	CreatedAt     time.Time `json:"createdAt"`
}
