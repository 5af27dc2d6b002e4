package ical

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"splitics/src/ical/utils"
)

// Fallbacks used when a VEVENT lacks the property
const (
	NoTitle = "No Title"
	NoUID   = "No UID"
)

// One VEVENT as found in the file. Recurring events keep their rule
// unexpanded, see Calendar.ToStaticEvents.
type Event struct {
	id          string
	summary     string
	description string
	location    string

	startDate   Datetime
	endDate     Datetime
	duration    time.Duration
	hasDuration bool

	rrule        string
	exDates      []Datetime
	rDates       []Datetime
	recurrenceID Datetime

	// 0-based index among the calendar's events
	position int
}

// Create an empty event
func NewEvent() Event {
	return Event{}
}

// #region Getters

// Get the event UID
func (e *Event) GetID() string {
	return e.id
}

// Get the event summary
func (e *Event) GetSummary() string {
	return e.summary
}

// Get the event description
func (e *Event) GetDescription() string {
	return e.description
}

// Get the event location
func (e *Event) GetLocation() string {
	return e.location
}

// Get the event start date
func (e *Event) GetStartDate() Datetime {
	return e.startDate
}

// Get the event end date. Computed from DURATION when DTEND is absent.
func (e *Event) GetEndDate() Datetime {
	if e.endDate.IsZero() && e.hasDuration && !e.startDate.IsZero() {
		return e.startDate.Add(e.duration)
	}
	return e.endDate
}

// Get the raw RRULE value
func (e *Event) GetRRule() string {
	return e.rrule
}

func (e *Event) GetExDates() []Datetime {
	return e.exDates
}

func (e *Event) GetRDates() []Datetime {
	return e.rDates
}

func (e *Event) GetRecurrenceID() Datetime {
	return e.recurrenceID
}

func (e *Event) GetPosition() int {
	return e.position
}

// Does the event describe a series (RRULE or RDATE)
func (e *Event) IsRecurring() bool {
	return e.recurrenceID.IsZero() && (e.rrule != "" || len(e.rDates) > 0)
}

// Does the event override one occurrence of a series
func (e *Event) IsOverride() bool {
	return !e.recurrenceID.IsZero()
}

// #endregion

// Add an iCalendar content line to the event. Unhandled properties are
// ignored. zones resolves TZIDs defined in the calendar, it may be nil.
func (e *Event) AddIcalProperty(line string, zones utils.ZoneLookup) error {
	prop, err := utils.ParseProperty(line)
	if err != nil {
		return err
	}

	switch prop.Name {
	case "UID":
		e.id = strings.TrimSpace(prop.Value)
	case "SUMMARY":
		e.summary = utils.UnescapeText(prop.Value)
	case "DESCRIPTION":
		e.description = utils.UnescapeText(prop.Value)
	case "LOCATION":
		e.location = utils.UnescapeText(prop.Value)
	case "DTSTART":
		parsed, err := parseDatetimeProperty(prop, zones)
		if err != nil {
			return err
		}
		e.startDate = parsed
	case "DTEND":
		parsed, err := parseDatetimeProperty(prop, zones)
		if err != nil {
			return err
		}
		e.endDate = parsed
	case "DURATION":
		duration, err := utils.ParseDuration(strings.TrimSpace(prop.Value))
		if err != nil {
			return err
		}
		e.duration = duration
		e.hasDuration = true
	case "RECURRENCE-ID":
		parsed, err := parseDatetimeProperty(prop, zones)
		if err != nil {
			return err
		}
		e.recurrenceID = parsed
	case "RRULE":
		e.rrule = strings.TrimSpace(prop.Value)
	case "EXDATE", "RDATE":
		if strings.EqualFold(prop.Param("VALUE"), "PERIOD") {
			slog.Debug("RDATE periods are not supported, skipping", "content", line)
			return nil
		}
		for _, value := range utils.SplitValues(prop.Value) {
			parsed, err := parseDatetimeValue(value, prop.Param("TZID"), zones)
			if err != nil {
				return err
			}
			if prop.Name == "EXDATE" {
				e.exDates = append(e.exDates, parsed)
			} else {
				e.rDates = append(e.rDates, parsed)
			}
		}
	}
	return nil
}

func parseDatetimeProperty(prop utils.Property, zones utils.ZoneLookup) (Datetime, error) {
	return parseDatetimeValue(strings.TrimSpace(prop.Value), prop.Param("TZID"), zones)
}

func parseDatetimeValue(value, tzid string, zones utils.ZoneLookup) (Datetime, error) {
	parsed, form, err := utils.IcalDatetimeToTime(value, tzid, zones)
	switch {
	case errors.Is(err, utils.ErrUnknownTZID):
		// may still be defined by a VTIMEZONE further down the file
		d := newDatetime(parsed, form)
		d.pendingTZID = tzid
		return d, nil
	case err != nil:
		return Datetime{}, err
	}
	return newDatetime(parsed, form), nil
}

// Resolve values whose TZID was unknown when they were parsed. Returns the
// TZIDs that are still unknown, those values stay floating.
func (e *Event) resolvePendingZones(zones utils.ZoneLookup) []string {
	unknown := make([]string, 0)
	resolve := func(d *Datetime) {
		if d.pendingTZID == "" {
			return
		}
		location, ok := zones(d.pendingTZID)
		if !ok {
			unknown = append(unknown, d.pendingTZID)
			d.pendingTZID = ""
			return
		}
		*d = Datetime{Time: d.Instant(location), Kind: DateKindZoned}
	}

	resolve(&e.startDate)
	resolve(&e.endDate)
	resolve(&e.recurrenceID)
	for i := range e.exDates {
		resolve(&e.exDates[i])
	}
	for i := range e.rDates {
		resolve(&e.rDates[i])
	}
	return unknown
}

// Check the event before it is added to a calendar
func (e *Event) Validate() error {
	end := e.GetEndDate()
	switch {
	case e.rrule != "" && e.startDate.IsZero():
		return fmt.Errorf("RRULE requires a start date")
	case e.rrule != "" && !e.recurrenceID.IsZero():
		return fmt.Errorf("RRULE and RECURRENCE-ID are mutually exclusive")
	case !e.startDate.IsZero() && !end.IsZero() &&
		end.Instant(time.UTC).Before(e.startDate.Instant(time.UTC)):
		return fmt.Errorf("DTEND must not be before DTSTART")
	default:
		return nil
	}
}
