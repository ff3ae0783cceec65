package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// Date is a calendar date with no time zone attached.  Turning it into an
// instant always goes through time.Date with an explicit location, never
// through a parser that would assume UTC midnight.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate reads exactly "YYYY-MM-DD" in ASCII digits.  Signs, missing
// zero padding and impossible dates such as 2025-02-30 are rejected.
func ParseDate(s string) (Date, bool) {
	parts := dateRe.FindStringSubmatch(strings.TrimSpace(s))
	if parts == nil {
		return Date{}, false
	}
	y, _ := strconv.Atoi(parts[1])
	m, _ := strconv.Atoi(parts[2])
	d, _ := strconv.Atoi(parts[3])
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Date{}, false
	}
	date := Date{Year: y, Month: time.Month(m), Day: d}
	noon := time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
	if noon.Day() != d || noon.Month() != time.Month(m) {
		return Date{}, false
	}
	return date, true
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Weekday of the civil date; independent of any time zone.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

// At returns the instant at the given minutes since midnight in loc.
func (d Date) At(minutes int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, minutes/60, minutes%60, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
