package utils

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	datePattern      = regexp.MustCompile(`^\d{4}\d{2}\d{2}$`)
	localTimePattern = regexp.MustCompile(`^\d{4}\d{2}\d{2}T\d{2}\d{2}\d{2}$`)
	UTCTimePattern   = regexp.MustCompile(`^\d{4}\d{2}\d{2}T\d{2}\d{2}\d{2}Z$`)
)

var ErrUnknownTZID = errors.New("unknown TZID")

type DatetimeForm int

// Resolves a TZID against zones defined by the calendar itself (VTIMEZONE).
type ZoneLookup func(tzid string) (*time.Location, bool)

const (
	FormDate DatetimeForm = iota + 1
	FormFloating
	FormUTC
	FormZoned
)

// Parsing date-time values, the property name and parameters already split
// off. For example, with the TZID parameter in tzid:
//   - 20220101           -> FormDate, midnight UTC wall clock
//   - 20220101T100000    -> FormFloating (UTC wall clock) or FormZoned when tzid is set
//   - 20220101T100000Z   -> FormUTC
//
// lookup, when not nil, is tried before the system tz database.
// When tzid can't be loaded the value is returned as FormFloating together
// with an error wrapping ErrUnknownTZID, so callers may degrade gracefully.
func IcalDatetimeToTime(value string, tzid string, lookup ZoneLookup) (time.Time, DatetimeForm, error) {
	switch {
	case datePattern.MatchString(value):
		result, err := time.Parse("20060102", value)
		if err != nil {
			return time.Time{}, 0, err
		}
		return result, FormDate, nil
	case localTimePattern.MatchString(value):
		result, err := time.Parse("20060102T150405", value)
		if err != nil {
			return time.Time{}, 0, err
		}
		if tzid == "" {
			return result, FormFloating, nil
		}
		location, err := loadZone(tzid, lookup)
		if err != nil {
			return result, FormFloating, err
		}
		zoned, err := time.ParseInLocation("20060102T150405", value, location)
		if err != nil {
			return time.Time{}, 0, err
		}
		return zoned, FormZoned, nil
	case UTCTimePattern.MatchString(value):
		result, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return time.Time{}, 0, err
		}
		return result, FormUTC, nil
	default:
		return time.Time{}, 0, fmt.Errorf("invalid date-time format: %q", value)
	}
}

func loadZone(tzid string, lookup ZoneLookup) (*time.Location, error) {
	if lookup != nil {
		if location, ok := lookup(tzid); ok {
			return location, nil
		}
	}
	location, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %s", ErrUnknownTZID, tzid, err)
	}
	return location, nil
}
