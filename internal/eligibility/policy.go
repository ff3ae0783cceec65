// Package eligibility decides whether a reservation draft may become a
// reservation.  Validate is pure: it reads the draft, the entity and the
// supplied clock and returns nil or a *ValidationError that can be shown
// to the user as is.
package eligibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/schedule"
)

// Slot is the part of a draft the policy looks at.
type Slot struct {
	Date      string // "YYYY-MM-DD"
	Time      string // "HH:mm" (12-hour strings are tolerated)
	PartySize int
}

// Policy holds the tunable limits.  The zero value is not useful; start
// from DefaultPolicy.
type Policy struct {
	LeadTime     time.Duration
	MinPartySize int
	MaxPartySize int
	// DefaultOpen and DefaultClose bound the booking time, in minutes since
	// midnight, for entities that configure no hours.
	DefaultOpen  int
	DefaultClose int
	// Location is the zone draft dates and times are interpreted in.
	Location *time.Location
}

// DefaultPolicy returns the production rules: 30 minutes lead time,
// parties of 1 to 20, 08:00–22:00 when an entity has no hours.
func DefaultPolicy() Policy {
	return Policy{
		LeadTime:     30 * time.Minute,
		MinPartySize: 1,
		MaxPartySize: 20,
		DefaultOpen:  schedule.DefaultOpenMinutes,
		DefaultClose: schedule.DefaultCloseMinutes,
		Location:     time.Local,
	}
}

// WithLocation returns a copy of p interpreting drafts in loc.
func (p Policy) WithLocation(loc *time.Location) Policy {
	p.Location = loc
	return p
}

// Validate checks slot against entity at instant now.  Checks run in a
// fixed order and stop at the first failure:
//
//  1. date, time and party size present
//  2. party size within bounds
//  3. weekday and business hours (not for events)
//  4. lead time (always)
//
// Missing or malformed schedule data on the entity never blocks a booking.
func (p Policy) Validate(slot Slot, entity model.Bookable, now time.Time) error {
	date := strings.TrimSpace(slot.Date)
	clock := strings.TrimSpace(slot.Time)
	if date == "" || clock == "" || slot.PartySize == 0 {
		return newError(CodeRequiredFields, "Por favor completa todos los campos requeridos")
	}
	if slot.PartySize < p.MinPartySize || slot.PartySize > p.MaxPartySize {
		return newError(CodePartySize, fmt.Sprintf("El número de personas debe estar entre %d y %d", p.MinPartySize, p.MaxPartySize))
	}

	civil, dateOK := schedule.ParseDate(date)
	minutes, timeOK := schedule.ParseToMinutes(clock)

	if !entity.IsEvent() {
		w := entity.Window()
		if dateOK && !schedule.IsWithinRange(civil, w.DayStart, w.DayEnd) {
			return newError(CodeWeekday, "Días disponibles: "+schedule.AllowedDaysMessage(w.DayStart, w.DayEnd))
		}
		if timeOK && !p.withinHours(minutes, w) {
			return newError(CodeHours, "El horario de atención es de "+schedule.HoursMessage(w.TimeStart, w.TimeEnd))
		}
	}

	if !dateOK || !timeOK {
		return newError(CodeInvalidDateTime, "La fecha u hora seleccionada no es válida")
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	at := civil.At(minutes, loc)
	if at.Before(now.Add(p.LeadTime)) {
		return newError(CodeLeadTime, fmt.Sprintf("La reservación debe hacerse con al menos %d minutos de anticipación", int(p.LeadTime/time.Minute)))
	}
	return nil
}

// withinHours applies the entity window, or the default window when the
// entity has none.  If any configured value fails to parse the check
// passes.
func (p Policy) withinHours(minutes int, w model.WeeklyWindow) bool {
	if w.TimeStart == "" || w.TimeEnd == "" {
		return minutes >= p.DefaultOpen && minutes <= p.DefaultClose
	}
	start, okStart := schedule.ParseToMinutes(w.TimeStart)
	end, okEnd := schedule.ParseToMinutes(w.TimeEnd)
	if !okStart || !okEnd {
		return true
	}
	return minutes >= start && minutes <= end
}
