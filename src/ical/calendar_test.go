package ical_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"splitics/src/ical"
)

func parse(t *testing.T, lines ...string) *ical.Calendar {
	t.Helper()
	cal, err := ical.FromIcalReader(strings.NewReader(strings.Join(lines, "\r\n")))
	if err != nil {
		t.Fatal(err)
	}
	return cal
}

func TestFromIcalReaderBasics(t *testing.T) {
	cal := parse(t,
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"X-WR-CALNAME:Team",
		"BEGIN:VEVENT",
		"UID:a@example.com",
		"SUMMARY:Standup\\, daily",
		"DESCRIPTION:line one\\nline two",
		"LOCATION:Room 1",
		"DTSTART:20240305T090000Z",
		"DTEND:20240305T091500Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"DTSTART;VALUE=DATE:20240306",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	if cal.GetProdID() != "-//test//EN" || cal.GetName() != "Team" {
		t.Errorf("calendar properties: %q %q", cal.GetProdID(), cal.GetName())
	}
	events := cal.GetEvents()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	first := events[0]
	if first.GetID() != "a@example.com" || first.GetSummary() != "Standup, daily" {
		t.Errorf("first event: %q %q", first.GetID(), first.GetSummary())
	}
	if first.GetDescription() != "line one\nline two" {
		t.Errorf("description: %q", first.GetDescription())
	}
	if first.GetStartDate().Kind != ical.DateKindUTC {
		t.Errorf("start kind: %v", first.GetStartDate().Kind)
	}
	if got := first.GetEndDate().Time.Sub(first.GetStartDate().Time); got != 15*time.Minute {
		t.Errorf("duration: %v", got)
	}

	second := events[1]
	if !second.GetStartDate().IsAllDay() {
		t.Error("second event should be all day")
	}
	if second.GetPosition() != 1 {
		t.Errorf("position: %d", second.GetPosition())
	}
	// missing properties stay empty, the report fills in the fallbacks
	if second.GetID() != "" || second.GetSummary() != "" {
		t.Errorf("unexpected values: %q %q", second.GetID(), second.GetSummary())
	}
}

func TestFromIcalReaderUnfolding(t *testing.T) {
	cal := parse(t,
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:A very",
		"  long title",
		"DESCRIPTION:tab",
		"\tcontinued",
		"END:VEVENT",
		"END:VCALENDAR",
	)
	e := cal.GetEvents()[0]
	if e.GetSummary() != "A very long title" {
		t.Errorf("summary: %q", e.GetSummary())
	}
	if e.GetDescription() != "tabcontinued" {
		t.Errorf("description: %q", e.GetDescription())
	}
}

func TestFromIcalReaderDurationAndZones(t *testing.T) {
	cal := parse(t,
		"BEGIN:VCALENDAR",
		"BEGIN:VTIMEZONE",
		"TZID:Europe/Paris",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:+0200",
		"END:STANDARD",
		"END:VTIMEZONE",
		"BEGIN:VEVENT",
		"DTSTART;TZID=Europe/Paris:20240305T100000",
		"DURATION:PT1H30M",
		"BEGIN:VALARM",
		"TRIGGER:-PT15M",
		"END:VALARM",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"DTSTART;TZID=Not/AZone:20240305T100000",
		"END:VEVENT",
		"END:VCALENDAR",
	)
	events := cal.GetEvents()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	start := events[0].GetStartDate()
	if start.Kind != ical.DateKindZoned || start.Time.Location().String() != "Europe/Paris" {
		t.Errorf("start: %v %v", start.Kind, start.Time.Location())
	}
	end := events[0].GetEndDate()
	if got := end.Time.Sub(start.Time); got != 90*time.Minute {
		t.Errorf("end from duration: %v", got)
	}

	// unknown TZID falls back to floating time
	if kind := events[1].GetStartDate().Kind; kind != ical.DateKindFloating {
		t.Errorf("unknown tzid kind: %v", kind)
	}
}

func TestFromIcalReaderSkipsUnknownComponents(t *testing.T) {
	cal := parse(t,
		"BEGIN:VCALENDAR",
		"BEGIN:VTODO",
		"SUMMARY:todo",
		"BEGIN:VALARM",
		"END:VALARM",
		"END:VTODO",
		"BEGIN:VEVENT",
		"SUMMARY:kept",
		"END:VEVENT",
		"END:VCALENDAR",
	)
	events := cal.GetEvents()
	if len(events) != 1 || events[0].GetSummary() != "kept" {
		t.Errorf("got %+v", events)
	}
}

func TestFromIcalReaderErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		line int
	}{
		{
			name: "no calendar",
			text: "",
		},
		{
			name: "content before calendar",
			text: "SUMMARY:x\nBEGIN:VCALENDAR\nEND:VCALENDAR",
			line: 1,
		},
		{
			name: "event outside of calendar",
			text: "BEGIN:VEVENT\nEND:VEVENT",
			line: 1,
		},
		{
			name: "mismatched end",
			text: "BEGIN:VCALENDAR\nBEGIN:VEVENT\nEND:VCALENDAR",
			line: 3,
		},
		{
			name: "nested event",
			text: "BEGIN:VCALENDAR\nBEGIN:VEVENT\nBEGIN:VEVENT\nEND:VEVENT\nEND:VEVENT\nEND:VCALENDAR",
			line: 3,
		},
		{
			name: "unterminated",
			text: "BEGIN:VCALENDAR\nBEGIN:VEVENT\nSUMMARY:x",
		},
		{
			name: "bad date",
			text: "BEGIN:VCALENDAR\nBEGIN:VEVENT\nDTSTART:2024-03-05\nEND:VEVENT\nEND:VCALENDAR",
			line: 3,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ical.FromIcalReader(strings.NewReader(tc.text))
			if err == nil {
				t.Fatal("expected an error")
			}
			var customErr *ical.CustomError
			if !errors.As(err, &customErr) {
				t.Fatalf("expected a CustomError, got %T", err)
			}
			if customErr.Line() != tc.line {
				t.Errorf("line: got %d, want %d (%v)", customErr.Line(), tc.line, err)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestFromIcalReaderReadError(t *testing.T) {
	_, err := ical.FromIcalReader(failingReader{})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v", err)
	}
}

func TestFromIcalFileMissing(t *testing.T) {
	_, err := ical.FromIcalFile("/does/not/exist.ics")
	if err == nil || !ical.IsCustomError(err) {
		t.Errorf("got %v", err)
	}
}

var easternTimezone = []string{
	"BEGIN:VTIMEZONE",
	"TZID:Eastern Standard Time",
	"BEGIN:STANDARD",
	"DTSTART:16010101T020000",
	"TZOFFSETFROM:-0400",
	"TZOFFSETTO:-0500",
	"TZNAME:EST",
	"RRULE:FREQ=YEARLY;INTERVAL=1;BYDAY=1SU;BYMONTH=11",
	"END:STANDARD",
	"BEGIN:DAYLIGHT",
	"DTSTART:16010101T020000",
	"TZOFFSETFROM:-0500",
	"TZOFFSETTO:-0400",
	"TZNAME:EDT",
	"RRULE:FREQ=YEARLY;INTERVAL=1;BYDAY=2SU;BYMONTH=3",
	"END:DAYLIGHT",
	"END:VTIMEZONE",
}

var easternEvents = []string{
	"BEGIN:VEVENT",
	"SUMMARY:winter",
	"DTSTART;TZID=Eastern Standard Time:20240115T090000",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"SUMMARY:summer",
	"DTSTART;TZID=\"Eastern Standard Time\":20240715T090000",
	"END:VEVENT",
}

func TestFromIcalReaderVTimezone(t *testing.T) {
	check := func(t *testing.T, cal *ical.Calendar) {
		t.Helper()
		events := cal.GetEvents()
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2", len(events))
		}
		for _, tc := range []struct {
			event    ical.Event
			name     string
			utcHour  int
			wallHour int
		}{
			{event: events[0], name: "EST", utcHour: 14, wallHour: 9},
			{event: events[1], name: "EDT", utcHour: 13, wallHour: 9},
		} {
			start := tc.event.GetStartDate()
			if start.Kind != ical.DateKindZoned {
				t.Errorf("%s: kind %v", tc.event.GetSummary(), start.Kind)
				continue
			}
			if name, _ := start.Time.Zone(); name != tc.name {
				t.Errorf("%s: zone %q, want %q", tc.event.GetSummary(), name, tc.name)
			}
			if start.Time.Hour() != tc.wallHour || start.Time.UTC().Hour() != tc.utcHour {
				t.Errorf("%s: got %v", tc.event.GetSummary(), start.Time)
			}
		}
	}

	// case: VTIMEZONE before the events
	func() {
		lines := append([]string{"BEGIN:VCALENDAR"}, easternTimezone...)
		lines = append(lines, easternEvents...)
		check(t, parse(t, append(lines, "END:VCALENDAR")...))
	}()

	// case: VTIMEZONE after the events
	func() {
		lines := append([]string{"BEGIN:VCALENDAR"}, easternEvents...)
		lines = append(lines, easternTimezone...)
		check(t, parse(t, append(lines, "END:VCALENDAR")...))
	}()
}

func TestFromIcalReaderVTimezoneWithoutName(t *testing.T) {
	cal := parse(t,
		"BEGIN:VCALENDAR",
		"BEGIN:VTIMEZONE",
		"TZID:Custom",
		"BEGIN:STANDARD",
		"DTSTART:19700101T000000",
		"TZOFFSETFROM:+0530",
		"TZOFFSETTO:+0530",
		"END:STANDARD",
		"END:VTIMEZONE",
		"BEGIN:VEVENT",
		"DTSTART;TZID=Custom:20240115T090000",
		"END:VEVENT",
		"END:VCALENDAR",
	)
	start := cal.GetEvents()[0].GetStartDate()
	name, offset := start.Time.Zone()
	if start.Kind != ical.DateKindZoned || name != "+0530" || offset != 5*3600+30*60 {
		t.Errorf("got %v %q %d", start.Kind, name, offset)
	}
}

func TestFromIcalReaderBadVTimezone(t *testing.T) {
	_, err := ical.FromIcalReader(strings.NewReader(strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VTIMEZONE",
		"TZID:Broken",
		"BEGIN:STANDARD",
		"TZOFFSETTO:five",
		"END:STANDARD",
		"END:VTIMEZONE",
		"END:VCALENDAR",
	}, "\n")))
	var customErr *ical.CustomError
	if !errors.As(err, &customErr) || customErr.Line() != 5 {
		t.Errorf("got %v", err)
	}
}
