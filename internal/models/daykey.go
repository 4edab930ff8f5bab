package models

import (
	"fmt"
	"time"
)

// DayKey is a UTC-normalized calendar day in YYYY-MM-DD form. Streak
// comparisons operate on day keys computed at check-in submission time, never
// on processing wall-clock time.
type DayKey string

const dayKeyLayout = "2006-01-02"

// DayKeyFromTime returns the day key for the UTC calendar day containing t.
func DayKeyFromTime(t time.Time) DayKey {
	return DayKey(t.UTC().Format(dayKeyLayout))
}

// ParseDayKey validates s as a YYYY-MM-DD day key.
func ParseDayKey(s string) (DayKey, error) {
	if _, err := time.Parse(dayKeyLayout, s); err != nil {
		return "", fmt.Errorf("invalid day key %q: %w", s, err)
	}
	return DayKey(s), nil
}

// Time returns the midnight UTC instant of the day key.
func (d DayKey) Time() (time.Time, error) {
	return time.Parse(dayKeyLayout, string(d))
}

// Prev returns the day key of the previous calendar day.
func (d DayKey) Prev() DayKey {
	t, err := d.Time()
	if err != nil {
		return ""
	}
	return DayKey(t.AddDate(0, 0, -1).Format(dayKeyLayout))
}

// IsZero reports whether the day key is unset.
func (d DayKey) IsZero() bool {
	return d == ""
}
