package model

import (
	"strings"
	"time"
)

// Kind discriminates the three sorts of bookable entity.  Services and
// attractions follow a recurring weekly window; events happen once at a
// fixed date and time.
type Kind string

const (
	KindService    Kind = "service"
	KindAttraction Kind = "attraction"
	KindEvent      Kind = "event"
)

// ParseKind normalises a kind string.  The second return value is false
// for anything that is not one of the three known kinds.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindService, KindAttraction, KindEvent:
		return k, true
	}
	return "", false
}

// FixedSlot is the single date and time an event takes place at.
// Date is "YYYY-MM-DD"; Time is a 24-hour clock string and may carry
// seconds as stored by the database ("20:00:00").
type FixedSlot struct {
	Date string
	Time string
}

// WeeklyWindow is the recurring availability of a service or attraction.
// Days are weekday names (Spanish, e.g. "Lunes") and times are 12-hour
// clock strings such as "09:00 AM".  Any field may be empty, in which case
// the corresponding rule is unconstrained.
type WeeklyWindow struct {
	DayStart  string
	DayEnd    string
	TimeStart string
	TimeEnd   string
}

// Bookable represents a row in the `bookables` table: a service,
// attraction or event that users can reserve.  Exactly one of Fixed or
// Weekly is set, selected by Kind; use Resolve after loading or binding
// raw data so the rest of the code never has to check fields ad hoc.
//
// Fields:
//  ID               – primary key identifier.
//  Kind             – service, attraction or event.
//  Name             – display name, copied into reservations.
//  Description      – free text shown in the catalog.
//  Location         – meeting point or venue.
//  PriceCents       – informational price per person.
//  TicketsAvailable – informational ticket count (nil when unknown).
//  Fixed            – event slot (events only).
//  Weekly           – recurring window (services and attractions only).
type Bookable struct {
	ID               uint64
	Kind             Kind
	Name             string
	Description      string
	Location         string
	PriceCents       uint32
	TicketsAvailable *int
	Fixed            *FixedSlot
	Weekly           *WeeklyWindow
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsEvent reports whether the entity has a fixed slot.
func (b Bookable) IsEvent() bool { return b.Kind == KindEvent }

// Window returns the weekly window, or the zero window when none is set.
func (b Bookable) Window() WeeklyWindow {
	if b.Weekly == nil {
		return WeeklyWindow{}
	}
	return *b.Weekly
}

// Slot returns the fixed event slot, or the zero slot when none is set.
func (b Bookable) Slot() FixedSlot {
	if b.Fixed == nil {
		return FixedSlot{}
	}
	return *b.Fixed
}

// Resolve builds the schedule half of the union from loosely shaped
// schedule fields.  Events keep only the fixed slot; everything else keeps
// only the weekly window.
func (b *Bookable) Resolve(fixed FixedSlot, weekly WeeklyWindow) {
	b.Fixed, b.Weekly = nil, nil
	if b.Kind == KindEvent {
		b.Fixed = &FixedSlot{Date: strings.TrimSpace(fixed.Date), Time: strings.TrimSpace(fixed.Time)}
		return
	}
	w := WeeklyWindow{
		DayStart:  strings.TrimSpace(weekly.DayStart),
		DayEnd:    strings.TrimSpace(weekly.DayEnd),
		TimeStart: strings.TrimSpace(weekly.TimeStart),
		TimeEnd:   strings.TrimSpace(weekly.TimeEnd),
	}
	b.Weekly = &w
}
