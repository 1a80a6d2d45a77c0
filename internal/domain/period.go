package domain

import "time"

type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
)

// Periods lists the two half-day periods in chronological order.
var Periods = []Period{PeriodMorning, PeriodAfternoon}

// DateKey normalizes a date to its canonical string form, used as a map key
// and as the wire/database representation of a calendar date.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a calendar date in the canonical form produced by DateKey.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
