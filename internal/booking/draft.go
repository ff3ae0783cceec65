// Package booking models the editable reservation form: a draft seeded
// from a bookable entity, its field-level edit rules, and the payload it
// turns into when submitted.
package booking

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/experiencias-arroyo/sierra-explora/internal/eligibility"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/schedule"
)

// Field names a draft field, using the names of the JSON payload.
type Field string

const (
	FieldDate      Field = "date"
	FieldTime      Field = "time"
	FieldPartySize Field = "partySize"
	FieldComments  Field = "comments"
)

const (
	MinPartySize = 1
	MaxPartySize = 20
	MaxComments  = 500
)

// Submission is the body of POST /reservations.
type Submission struct {
	ServiceID   uint64     `json:"serviceId"`
	ServiceName string     `json:"serviceName"`
	ServiceKind model.Kind `json:"serviceKind"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	PartySize   int        `json:"partySize"`
	Comments    string     `json:"comments"`
}

// Draft is the in-progress state of a booking form for one entity.  For
// events the date and time come from the entity and cannot be edited.
type Draft struct {
	entity    model.Bookable
	date      string
	clock     string
	partySize int
	comments  string
	locked    bool
}

// NewDraft seeds a draft for entity with one person and no comments.
func NewDraft(entity model.Bookable) *Draft {
	d := &Draft{entity: entity, partySize: 1}
	if entity.IsEvent() {
		slot := entity.Slot()
		d.date = strings.TrimSpace(slot.Date)
		d.clock = schedule.NormalizeToHHMM(slot.Time)
		d.locked = true
	}
	return d
}

// FromSubmission rebuilds a draft from a submitted payload.  Unlike
// UpdateField it keeps any party size as given so the policy can reject
// it, while events still keep their fixed date and time.
func FromSubmission(entity model.Bookable, s Submission) *Draft {
	d := NewDraft(entity)
	if !d.locked {
		d.date = strings.TrimSpace(s.Date)
		d.clock = strings.TrimSpace(s.Time)
	}
	d.partySize = s.PartySize
	d.comments = s.Comments
	return d
}

// UpdateField applies a form edit and reports whether it was taken.
// Date and time edits are ignored on locked drafts; a party size that is
// not an integer in [1,20] is ignored and the previous value kept.
func (d *Draft) UpdateField(f Field, value string) bool {
	switch f {
	case FieldDate:
		if d.locked {
			return false
		}
		d.date = strings.TrimSpace(value)
	case FieldTime:
		if d.locked {
			return false
		}
		d.clock = strings.TrimSpace(value)
	case FieldPartySize:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < MinPartySize || n > MaxPartySize {
			return false
		}
		d.partySize = n
	case FieldComments:
		d.comments = value
	default:
		return false
	}
	return true
}

func (d *Draft) Entity() model.Bookable { return d.entity }
func (d *Draft) Date() string           { return d.date }
func (d *Draft) Time() string           { return d.clock }
func (d *Draft) PartySize() int         { return d.partySize }
func (d *Draft) Comments() string       { return d.comments }

// Locked reports whether date and time are fixed by the entity.
func (d *Draft) Locked() bool { return d.locked }

// Slot is what the eligibility policy checks.
func (d *Draft) Slot() eligibility.Slot {
	return eligibility.Slot{Date: d.date, Time: d.clock, PartySize: d.partySize}
}

// Validate runs p against the draft's own entity.
func (d *Draft) Validate(p eligibility.Policy, now time.Time) error {
	return p.Validate(d.Slot(), d.entity, now)
}

// Submission produces the persisted shape: comments trimmed and cut to
// 500 characters, date in canonical YYYY-MM-DD and time rendered as HH:mm
// when they parse.
func (d *Draft) Submission() Submission {
	date := d.date
	if civil, ok := schedule.ParseDate(date); ok {
		date = civil.String()
	}
	clock := d.clock
	if m, ok := schedule.ParseToMinutes(clock); ok {
		clock = schedule.FormatMinutesHHMM(m)
	}
	return Submission{
		ServiceID:   d.entity.ID,
		ServiceName: d.entity.Name,
		ServiceKind: d.entity.Kind,
		Date:        date,
		Time:        clock,
		PartySize:   d.partySize,
		Comments:    truncateRunes(strings.TrimSpace(d.comments), MaxComments),
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
