package model

import (
    "strings"
    "time"
)

// DateLayout is the calendar date format used on the wire and in SQL.
const DateLayout = "2006-01-02"

// Stay is a half-open interval of calendar dates [CheckIn, CheckOut).
type Stay struct {
    CheckIn  time.Time
    CheckOut time.Time
}

// Valid reports whether CheckIn is strictly before CheckOut.
func (s Stay) Valid() bool { return s.CheckIn.Before(s.CheckOut) }

// Nights returns the number of nights covered by the stay.
func (s Stay) Nights() int {
    if !s.Valid() {
        return 0
    }
    return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string into UTC midnight.
func ParseDate(s string) (time.Time, error) {
    return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
