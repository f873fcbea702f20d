package timecalc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date used for entries on disk and in memory.
const DateLayout = "2006-01-02"

// ErrInvalidTime is returned when a clock string cannot be turned into an hour value.
var ErrInvalidTime = errors.New("invalid clock time")

// ParseClockTime converts a 12-hour clock string such as "1:30pm" into a
// fractional hour. Minutes are rounded to hundredths of an hour.
//
// 12am is kept as 12.0, not 0.0; Difference relies on that mapping.
func ParseClockTime(text string) (float64, error) {
	var acc, hours float64
	colon := false

	for i := 0; i < len(text); i++ {
		b := text[i]
		if b == ':' {
			hours = acc
			acc = 0
			colon = true
			continue
		}
		if b < '0' || b > '9' {
			break
		}
		acc = acc*10 + float64(b-'0')
	}

	if !colon {
		hours = acc
		acc = 0
	}

	if hours < 1 || hours > 12 {
		return 0, fmt.Errorf("%w %q: hour out of range", ErrInvalidTime, text)
	}
	if acc < 0 || acc > 59 {
		return 0, fmt.Errorf("%w %q: minute out of range", ErrInvalidTime, text)
	}

	if strings.HasSuffix(strings.ToLower(text), "pm") && hours != 12 {
		hours += 12
	}

	value := hours + math.Round((acc/60.0)*100.0)/100.0
	if value == 0 {
		return 0, fmt.Errorf("%w %q", ErrInvalidTime, text)
	}
	return value, nil
}

// Difference returns the hours elapsed from start to end, wrapping past
// midnight when end is earlier than start. The result is in [0, 24).
func Difference(start, end string) (float64, error) {
	s, err := ParseClockTime(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClockTime(end)
	if err != nil {
		return 0, err
	}

	diff := e - s
	if diff < 0 {
		diff += 24
	}
	return diff, nil
}

// FormatHours renders an hour value in its shortest decimal form ("8", "2.5").
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// ParseHours is the inverse of FormatHours.
func ParseHours(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// FormatClock renders t as a lower-case 12-hour clock string like "9:05am".
func FormatClock(t time.Time) string {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	suffix := "am"
	if t.Hour() >= 12 {
		suffix = "pm"
	}
	return fmt.Sprintf("%d:%02d%s", h, t.Minute(), suffix)
}

// FormatDate returns the ISO date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO date in the local time zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// Today returns the calendar date reported by now, at midnight.
func Today(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return StartOfDay(now())
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := StartOfDay(t.AddDate(0, 0, -(wd - 1)))
	sunday := EndOfDay(monday.AddDate(0, 0, 6))
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// InRange reports whether the ISO date string lies within [from, to].
func InRange(date string, from, to time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, date, from.Location())
	if err != nil {
		return false
	}
	return !d.Before(StartOfDay(from)) && !d.After(to)
}
