// Package schedule holds the clock and calendar helpers behind reservation
// eligibility: parsing 12/24-hour time strings into minutes since midnight,
// civil dates, and wrap-around weekday ranges.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Default general opening window applied when an entity carries no hours.
const (
	DefaultOpenMinutes  = 8 * 60  // 08:00
	DefaultCloseMinutes = 22 * 60 // 22:00
)

var (
	twelveHourRe = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([AP]M)$`)
	clockRe      = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseToMinutes converts "h:mm AM", "hh:mm pm", "HH:mm" or "HH:mm:ss" into
// minutes since midnight.  A string containing AM or PM anywhere is read as
// 12-hour.  It returns false for empty or malformed input; callers decide
// what an unparsable time means for them.
func ParseToMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	upper := strings.ToUpper(s)
	if strings.Contains(upper, "AM") || strings.Contains(upper, "PM") {
		m := twelveHourRe.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h == 0 || h > 12 || mm > 59 {
			return 0, false
		}
		pm := strings.EqualFold(m[3], "PM")
		switch {
		case h == 12 && !pm:
			h = 0
		case h != 12 && pm:
			h += 12
		}
		return h*60 + mm, true
	}
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return 0, false
	}
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return 0, false
		}
	}
	return h*60 + mm, true
}

// NormalizeToHHMM keeps the first two colon-separated components of a
// clock string, so "20:00:00" becomes "20:00".  A one-digit hour is
// zero-padded.  Strings that are not colon-separated come back trimmed
// and otherwise untouched.
func NormalizeToHHMM(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return s
	}
	h, m := parts[0], parts[1]
	if len(h) == 1 && h[0] >= '0' && h[0] <= '9' {
		h = "0" + h
	}
	return h + ":" + m
}

// FormatMinutes12h renders minutes since midnight as "9:00 AM".
func FormatMinutes12h(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	h, m := minutes/60, minutes%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}

// FormatMinutesHHMM renders minutes since midnight as "HH:mm".
func FormatMinutesHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
