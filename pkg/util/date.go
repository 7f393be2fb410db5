package util

import (
	"fmt"
	"time"
)

// IST is India Standard Time. A fixed zone keeps results independent of the host tzdata.
var IST = time.FixedZone("IST", 5*3600+30*60)

const (
	// DateLayout is the calendar-day key used for snapshots and trade dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wall-clock layout used for snapshot times and session bounds.
	ClockLayout = "15:04"
)

// ISTDate returns the IST calendar day of t as YYYY-MM-DD.
func ISTDate(t time.Time) string {
	return t.In(IST).Format(DateLayout)
}

// ISTClock returns the IST wall-clock time of t as HH:MM.
func ISTClock(t time.Time) string {
	return t.In(IST).Format(ClockLayout)
}

// SameISTDay reports whether a and b fall on the same IST calendar day.
func SameISTDay(a, b time.Time) bool {
	return ISTDate(a) == ISTDate(b)
}

// ParseISTDate parses YYYY-MM-DD as midnight IST.
func ParseISTDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, IST)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Session is an intraday trading window on one IST calendar day.
type Session struct {
	Open  time.Time
	Close time.Time
}

// Contains reports whether t lies inside [Open, Close].
func (s Session) Contains(t time.Time) bool {
	return !t.Before(s.Open) && !t.After(s.Close)
}

// SessionFor builds the session for date (YYYY-MM-DD) from HH:MM bounds.
func SessionFor(date, open, close string) (Session, error) {
	day, err := ParseISTDate(date)
	if err != nil {
		return Session{}, err
	}
	o, err := clockOffset(open)
	if err != nil {
		return Session{}, err
	}
	c, err := clockOffset(close)
	if err != nil {
		return Session{}, err
	}
	if c <= o {
		return Session{}, fmt.Errorf("session close %s must be after open %s", close, open)
	}
	return Session{Open: day.Add(o), Close: day.Add(c)}, nil
}

func clockOffset(s string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
