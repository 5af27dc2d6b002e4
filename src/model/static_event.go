package model

import (
	"time"

	"splitics/src/ical"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// One row of the event index: a report-ready event or recurrence occurrence.
type StaticEvent struct {
	bun.BaseModel `bun:"table:static_events"`

	ID  string `bun:"id,pk"`
	UID string `bun:"uid"`
	// position of the source VEVENT in the file
	Position int `bun:"position,notnull"`
	// insertion order, breaks ties between occurrences of the same VEVENT
	Seq int `bun:"seq,notnull"`

	HasStart bool `bun:"has_start,notnull"`
	// start instant in microseconds, 0 when HasStart is false
	SortKey int64 `bun:"sort_key,notnull"`

	Summary     string `bun:"summary"`
	Description string `bun:"description"`
	Location    string `bun:"location"`

	StartValue int64         `bun:"start_value,notnull"`
	StartKind  ical.DateKind `bun:"start_kind,notnull"`
	StartTZ    string        `bun:"start_tz"`
	EndValue   int64         `bun:"end_value,notnull"`
	EndKind    ical.DateKind `bun:"end_kind,notnull"`
	EndTZ      string        `bun:"end_tz"`

	IsOccurrence bool `bun:"is_occurrence,notnull"`
}

// Build an index row. Date and floating values are placed on the time line
// in loc for the sort key.
func NewStaticEvent(e ical.StaticEvent, seq int, loc *time.Location) StaticEvent {
	m := StaticEvent{
		ID:           uuid.NewString(),
		UID:          e.UID,
		Position:     e.Position,
		Seq:          seq,
		HasStart:     !e.Start.IsZero(),
		Summary:      e.Summary,
		Description:  e.Description,
		Location:     e.Location,
		IsOccurrence: e.IsOccurrence,
	}
	if m.HasStart {
		m.SortKey = e.Start.Instant(loc).UnixMicro()
	}
	m.StartValue, m.StartKind, m.StartTZ = encodeDatetime(e.Start)
	m.EndValue, m.EndKind, m.EndTZ = encodeDatetime(e.End)
	return m
}

// Back to the parser's representation.
func (m *StaticEvent) ToIcal() ical.StaticEvent {
	return ical.StaticEvent{
		UID:          m.UID,
		Summary:      m.Summary,
		Description:  m.Description,
		Location:     m.Location,
		Start:        decodeDatetime(m.StartValue, m.StartKind, m.StartTZ),
		End:          decodeDatetime(m.EndValue, m.EndKind, m.EndTZ),
		Position:     m.Position,
		IsOccurrence: m.IsOccurrence,
	}
}

func encodeDatetime(d ical.Datetime) (int64, ical.DateKind, string) {
	if d.IsZero() {
		return 0, 0, ""
	}
	tz := ""
	if d.Kind == ical.DateKindZoned {
		tz = d.Time.Location().String()
	}
	return d.Time.UnixMicro(), d.Kind, tz
}

func decodeDatetime(value int64, kind ical.DateKind, tz string) ical.Datetime {
	if kind == 0 {
		return ical.Datetime{}
	}
	t := time.UnixMicro(value).UTC()
	if kind == ical.DateKindZoned {
		// the name was loaded once already, so this only fails if the tz
		// database changed under us
		if loc, err := time.LoadLocation(tz); err == nil {
			t = t.In(loc)
		}
	}
	return ical.Datetime{Time: t, Kind: kind}
}
