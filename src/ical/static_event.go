package ical

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xyedo/rrule"
)

// Pure event information, one per line item of a report. Recurring series
// are either kept as a single StaticEvent or flattened into one StaticEvent
// per occurrence.
type StaticEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       Datetime
	End         Datetime
	// position of the source VEVENT in the file
	Position int
	// generated from a recurrence rule, or an override of one occurrence
	IsOccurrence bool
}

type ExpandOptions struct {
	// Replace recurring series by their occurrences
	Expand bool
	// Occurrence window, both ends inclusive. A zero From means "from the
	// series start", a zero To means From + Horizon.
	From    time.Time
	To      time.Time
	Horizon time.Duration
	// Zone used to place date and floating values on the time line
	Location *time.Location
}

func staticEventOf(e *Event) StaticEvent {
	return StaticEvent{
		UID:         e.GetID(),
		Summary:     e.GetSummary(),
		Description: e.GetDescription(),
		Location:    e.GetLocation(),
		Start:       e.GetStartDate(),
		End:         e.GetEndDate(),
		Position:    e.GetPosition(),
	}
}

// Flatten the calendar into static events, in file order. Without
// opts.Expand every VEVENT gives exactly one StaticEvent.
func (c *Calendar) ToStaticEvents(opts ExpandOptions) []StaticEvent {
	staticEvents := make([]StaticEvent, 0, len(c.events))
	if !opts.Expand {
		for i := range c.events {
			staticEvents = append(staticEvents, staticEventOf(&c.events[i]))
		}
		return staticEvents
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	// overrides of one occurrence, grouped by series UID
	overrides := make(map[string][]*Event)
	series := make(map[string]struct{})
	for i := range c.events {
		e := &c.events[i]
		if e.IsRecurring() && !e.GetStartDate().IsZero() {
			series[e.GetID()] = struct{}{}
		}
	}
	for i := range c.events {
		e := &c.events[i]
		if !e.IsOverride() {
			continue
		}
		if _, ok := series[e.GetID()]; ok {
			overrides[e.GetID()] = append(overrides[e.GetID()], e)
		}
	}

	for i := range c.events {
		e := &c.events[i]
		switch {
		case e.IsOverride():
			// emitted together with their series
			if _, ok := series[e.GetID()]; !ok {
				staticEvents = append(staticEvents, staticEventOf(e))
			}
		case e.IsRecurring() && !e.GetStartDate().IsZero():
			occurrences, err := expandSeries(e, overrides[e.GetID()], opts)
			if err != nil {
				slog.Warn("can't expand recurring event, keeping it as a single event",
					"where", "ical.Calendar.ToStaticEvents",
					"uid", e.GetID(),
					"error", err)
				staticEvents = append(staticEvents, staticEventOf(e))
				continue
			}
			staticEvents = append(staticEvents, occurrences...)
		default:
			staticEvents = append(staticEvents, staticEventOf(e))
		}
	}

	return staticEvents
}

// Expand one series into its occurrences within the window. Overrides
// replace the occurrence their RECURRENCE-ID points at.
func expandSeries(master *Event, overrides []*Event, opts ExpandOptions) ([]StaticEvent, error) {
	start := master.GetStartDate()
	rruleSet, err := newRRuleSet(master, opts.Location)
	if err != nil {
		return nil, err
	}

	from := opts.From
	if from.IsZero() {
		from = start.Instant(opts.Location)
	}
	to := opts.To
	if to.IsZero() {
		to = from.Add(opts.Horizon)
	}
	if to.Before(from) {
		return []StaticEvent{}, nil
	}

	// the set works on the wall clock of date and floating values
	fromKey, toKey := from, to
	if !start.IsAbsolute() {
		fromKey, toKey = wallClockUTC(from, opts.Location), wallClockUTC(to, opts.Location)
	}

	// get all dates from rrule set, minus the overridden ones
	overridden := make(map[int64]struct{})
	for _, o := range overrides {
		overridden[o.GetRecurrenceID().Instant(opts.Location).Unix()] = struct{}{}
	}

	var duration time.Duration
	hasEnd := !master.GetEndDate().IsZero()
	if hasEnd {
		duration = master.GetEndDate().Instant(opts.Location).Sub(start.Instant(opts.Location))
	}

	occurrences := make([]StaticEvent, 0)
	for _, date := range rruleSet.Between(fromKey, toKey, true) {
		occStart := Datetime{Time: date, Kind: start.Kind}
		if start.IsAbsolute() {
			occStart.Time = date.In(start.Time.Location())
		}
		if _, ok := overridden[occStart.Instant(opts.Location).Unix()]; ok {
			continue
		}

		occ := staticEventOf(master)
		occ.Start = occStart
		occ.End = Datetime{}
		if hasEnd {
			occ.End = occStart.Add(duration)
			occ.End.Kind = master.GetEndDate().Kind
		}
		occ.IsOccurrence = true
		occurrences = append(occurrences, occ)
	}

	// append its child events, when they fall inside the window
	for _, o := range overrides {
		at := o.GetStartDate()
		if at.IsZero() {
			at = o.GetRecurrenceID()
		}
		instant := at.Instant(opts.Location)
		if instant.Before(from) || instant.After(to) {
			continue
		}
		occ := staticEventOf(o)
		if occ.Start.IsZero() {
			occ.Start = o.GetRecurrenceID()
		}
		if occ.End.IsZero() && hasEnd {
			occ.End = occ.Start.Add(duration)
		}
		occ.IsOccurrence = true
		occurrences = append(occurrences, occ)
	}

	return occurrences, nil
}

// Build the recurrence set of a master event from its DTSTART, RRULE, RDATE
// and EXDATE values. loc places UTC exceptions of a floating series.
func newRRuleSet(master *Event, loc *time.Location) (*rrule.Set, error) {
	start := master.GetStartDate()

	var sb strings.Builder
	sb.WriteString("DTSTART:" + start.Time.UTC().Format("20060102T150405Z"))
	if master.GetRRule() != "" {
		sb.WriteString("\nRRULE:" + master.GetRRule())
	}

	rruleSet, err := rrule.StrToRRuleSet(sb.String())
	if err != nil {
		return nil, fmt.Errorf("newRRuleSet: %w", err)
	}
	// zones may come from a VTIMEZONE the rrule parser can't load by name,
	// so the zone is set on the parsed set instead
	if start.Kind == DateKindZoned {
		rruleSet.DTStart(start.Time)
	}
	// a lone DTSTART plus RDATEs is still a series that includes DTSTART
	if master.GetRRule() == "" {
		rruleSet.RDate(start.Time)
	}
	for _, d := range master.GetRDates() {
		rruleSet.RDate(alignTo(d, start, loc))
	}
	for _, d := range master.GetExDates() {
		rruleSet.ExDate(alignTo(d, start, loc))
	}
	return rruleSet, nil
}

// Bring an RDATE/EXDATE value onto the same clock as the series start so
// that equal occurrences compare equal.
func alignTo(d Datetime, start Datetime, loc *time.Location) time.Time {
	switch {
	case start.IsAbsolute() && !d.IsAbsolute():
		// floating exception on a zoned series: read it in the series zone
		return d.Instant(start.Time.Location())
	case !start.IsAbsolute() && d.IsAbsolute():
		// floating series run on the wall clock of the display zone
		return wallClockUTC(d.Time, loc)
	default:
		return d.Time
	}
}

// The wall clock of t as seen in loc, stored in a UTC time.Time
func wallClockUTC(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC)
}
