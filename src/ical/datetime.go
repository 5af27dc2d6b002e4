package ical

import (
	"time"

	"splitics/src/ical/utils"
)

type DateKind int

const (
	// all-day value (VALUE=DATE)
	DateKindDate DateKind = iota + 1
	// wall clock without any zone
	DateKindFloating
	DateKindUTC
	// wall clock in a TZID location
	DateKindZoned
)

// A DTSTART/DTEND-like value. Date and floating values keep their wall clock
// in a UTC time.Time; UTC and zoned values carry their own location.
type Datetime struct {
	Time time.Time
	Kind DateKind

	// TZID not resolved yet, the value is floating until then
	pendingTZID string
}

func newDatetime(t time.Time, form utils.DatetimeForm) Datetime {
	switch form {
	case utils.FormDate:
		return Datetime{Time: t, Kind: DateKindDate}
	case utils.FormUTC:
		return Datetime{Time: t.UTC(), Kind: DateKindUTC}
	case utils.FormZoned:
		return Datetime{Time: t, Kind: DateKindZoned}
	default:
		return Datetime{Time: t, Kind: DateKindFloating}
	}
}

func (d Datetime) IsZero() bool {
	return d.Kind == 0
}

func (d Datetime) IsAllDay() bool {
	return d.Kind == DateKindDate
}

// Does the value refer to a fixed point in time without help from a zone
func (d Datetime) IsAbsolute() bool {
	return d.Kind == DateKindUTC || d.Kind == DateKindZoned
}

// The point in time the value stands for. Date and floating values are read
// as wall clock in loc (nil means time.Local).
func (d Datetime) Instant(loc *time.Location) time.Time {
	if d.IsAbsolute() {
		return d.Time
	}
	if loc == nil {
		loc = time.Local
	}
	y, m, day := d.Time.Date()
	hh, mm, ss := d.Time.Clock()
	return time.Date(y, m, day, hh, mm, ss, d.Time.Nanosecond(), loc)
}

// Shift by dur keeping the kind
func (d Datetime) Add(dur time.Duration) Datetime {
	if d.IsZero() {
		return d
	}
	return Datetime{Time: d.Time.Add(dur), Kind: d.Kind}
}

// Same value, same kind
func (d Datetime) Equal(other Datetime) bool {
	return d.Kind == other.Kind && d.Time.Equal(other.Time)
}
