package utils

import (
	"time"
)

// LoadLocation resolves an IANA zone name, falling back to UTC when the zone
// database does not know it.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func TimeNowIn(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// LastTradingDate rolls weekends back to the preceding Friday.
func LastTradingDate(t time.Time) time.Time {
	d := DateOnly(t)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	default:
		return d
	}
}

// SameDate reports whether a and b fall on the same calendar day, ignoring location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CivilDate maps t onto midnight UTC of its own calendar day, so dates coming
// from different zones compare by day.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
