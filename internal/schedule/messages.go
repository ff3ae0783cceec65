package schedule

import "strings"

// AllowedDaysMessage describes a weekday range for users: "solo Sábado",
// "Lunes a Viernes" or "todos los días".
func AllowedDaysMessage(dayStart, dayEnd string) string {
	dayStart, dayEnd = strings.TrimSpace(dayStart), strings.TrimSpace(dayEnd)
	switch {
	case dayStart != "" && dayEnd != "" && SameDay(dayStart, dayEnd):
		return "solo " + dayStart
	case dayStart != "" && dayEnd != "":
		return dayStart + " a " + dayEnd
	default:
		return "todos los días"
	}
}

// HoursMessage describes an opening window as "9:00 AM - 6:00 PM".  When
// no hours are configured the default general window is described.
// Unparsable configured values are echoed as given.
func HoursMessage(timeStart, timeEnd string) string {
	timeStart, timeEnd = strings.TrimSpace(timeStart), strings.TrimSpace(timeEnd)
	if timeStart == "" || timeEnd == "" {
		return FormatMinutes12h(DefaultOpenMinutes) + " - " + FormatMinutes12h(DefaultCloseMinutes)
	}
	return displayTime(timeStart) + " - " + displayTime(timeEnd)
}

func displayTime(s string) string {
	if m, ok := ParseToMinutes(s); ok {
		return FormatMinutes12h(m)
	}
	return s
}
