package schedule

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WeekdayNames lists the day names used in entity schedules, Monday first.
var WeekdayNames = [7]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

var englishNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var weekdayIndex = func() map[string]int {
	idx := make(map[string]int, 14)
	for i := range WeekdayNames {
		idx[fold(WeekdayNames[i])] = i
		idx[englishNames[i]] = i
	}
	return idx
}()

// fold lowercases s and strips diacritics so "Miércoles", "miercoles" and
// "MIÉRCOLES" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToLower(out)
}

// WeekdayIndex maps a day name to Monday=0 … Sunday=6.
func WeekdayIndex(name string) (int, bool) {
	i, ok := weekdayIndex[fold(name)]
	return i, ok
}

// MondayIndex remaps Go's Sunday=0 ordering to Monday=0 … Sunday=6.
func MondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// SameDay reports whether two day names refer to the same weekday.
func SameDay(a, b string) bool {
	ia, oka := WeekdayIndex(a)
	ib, okb := WeekdayIndex(b)
	if oka && okb {
		return ia == ib
	}
	return fold(a) == fold(b)
}

// IsWithinRange reports whether d falls inside the inclusive weekday range
// [dayStart, dayEnd].  The range may wrap past Sunday (Viernes → Lunes).
// A missing or unrecognised bound leaves the range unconstrained.
func IsWithinRange(d Date, dayStart, dayEnd string) bool {
	if strings.TrimSpace(dayStart) == "" || strings.TrimSpace(dayEnd) == "" {
		return true
	}
	start, okStart := WeekdayIndex(dayStart)
	end, okEnd := WeekdayIndex(dayEnd)
	if !okStart || !okEnd {
		return true
	}
	idx := MondayIndex(d.Weekday())
	if start <= end {
		return idx >= start && idx <= end
	}
	return idx >= start || idx <= end
}
