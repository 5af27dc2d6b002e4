// The `ical` package parses iCalendar files into a flat list of events.
//
// # References:
// - RFC5545: https://datatracker.ietf.org/doc/html/rfc5545
//
// # Notes:
//   - Only VEVENT components are kept as events. VTIMEZONE blocks (with their
//     STANDARD and DAYLIGHT sub-components) become time zones, and TZID
//     parameters are resolved against them first, then against the system
//     tz database. VALARM is validated for nesting and otherwise ignored.
//   - Unknown components (VTODO, VJOURNAL, X-...) are skipped with everything
//     nested in them.
//   - Events are kept in file order. A VEVENT carrying RECURRENCE-ID is kept as
//     its own event; ToStaticEvents folds it into its series when expanding.
//
// # Example usage:
//
// Parse from a file
//
//	calendar, _ := ical.FromIcalFile("path/to/input/calendar.ics")
//
// Flatten into report-ready events, recurring series expanded within a window
//
//	events := calendar.ToStaticEvents(ical.ExpandOptions{Expand: true, To: end})
package ical

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxLineSize = 10 * 1024 * 1024

// The main struct of the package
type Calendar struct {
	id          string
	prodID      string
	name        string
	description string
	timezone    string
	events      []Event

	// zones defined by VTIMEZONE blocks, by TZID
	zones map[string]*time.Location
}

// Initialize a new Calendar{} struct
func NewCalendar() Calendar {
	return Calendar{
		id:     uuid.NewString(),
		events: make([]Event, 0),
		zones:  make(map[string]*time.Location),
	}
}

// Unmarshal an iCalendar file into a Calendar{} struct.
func FromIcalFile(path string) (*Calendar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewCustomError("can't open file", map[string]any{
			"path": path,
			"err":  err,
		})
	}
	defer file.Close()

	return FromIcalReader(file)
}

// Unmarshal an iCalendar stream into a Calendar{} struct.
func FromIcalReader(r io.Reader) (*Calendar, error) {
	done := make(chan struct{})
	defer close(done)

	lineCh, errCh := readLines(done, r)
	cal, err := iCalParser(unfoldLines(done, lineCh))

	// the reader sends its error before closing lineCh, so a truncated read
	// is reported as such rather than as a parsing error
	select {
	case readErr := <-errCh:
		return nil, NewCustomError("can't read calendar", map[string]any{
			"err": readErr,
		})
	default:
	}
	if err != nil {
		return nil, err
	}
	return cal, nil
}

type contentLine struct {
	// 1-based physical line the content starts at
	n    int
	text string
}

func readLines(done <-chan struct{}, r io.Reader) (<-chan contentLine, <-chan error) {
	lineCh := make(chan contentLine)
	errCh := make(chan error, 1)

	go func() {
		defer close(lineCh)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		n := 0
		for scanner.Scan() {
			n++
			select {
			case lineCh <- contentLine{n: n, text: strings.TrimSuffix(scanner.Text(), "\r")}:
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
		}
	}()

	return lineCh, errCh
}

// "lookahead" to merge lines that are folded: a line starting with a space
// or a tab continues the previous one
func unfoldLines(done <-chan struct{}, lineCh <-chan contentLine) <-chan contentLine {
	mergedLineCh := make(chan contentLine)

	go func() {
		defer close(mergedLineCh)

		var last contentLine
		hasLast := false
		send := func(line contentLine) bool {
			select {
			case mergedLineCh <- line:
				return true
			case <-done:
				return false
			}
		}
		for current := range lineCh {
			if hasLast && (strings.HasPrefix(current.text, " ") || strings.HasPrefix(current.text, "\t")) {
				last.text += current.text[1:]
				continue
			}
			if hasLast && !send(last) {
				return
			}
			last, hasLast = current, true
		}
		if hasLast {
			send(last)
		}
	}()

	return mergedLineCh
}

// Component nesting rules: which parent a component must sit in.
// An empty parent means top level.
var componentParents = map[string]string{
	"VCALENDAR": "",
	"VEVENT":    "VCALENDAR",
	"VTIMEZONE": "VCALENDAR",
	"STANDARD":  "VTIMEZONE",
	"DAYLIGHT":  "VTIMEZONE",
	"VALARM":    "VEVENT",
}

// The state machine turning unfolded content lines into a Calendar.
func iCalParser(lineCh <-chan contentLine) (*Calendar, error) {
	cal := NewCalendar()
	stack := make([]string, 0, 4)
	// depth inside a component we don't care about
	skipDepth := 0
	blankEvent := NewEvent()
	var tz *vtimezone
	sawCalendar := false

	top := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}

	for line := range lineCh {
		if strings.TrimSpace(line.text) == "" {
			continue
		}

		slice := strings.SplitN(line.text, ":", 2)
		key := strings.ToUpper(strings.TrimSpace(slice[0]))
		value := ""
		if len(slice) == 2 {
			value = strings.ToUpper(strings.TrimSpace(slice[1]))
		}

		switch {
		case key == "BEGIN" && skipDepth > 0:
			skipDepth++
			continue
		case key == "END" && skipDepth > 0:
			skipDepth--
			continue
		case skipDepth > 0:
			continue
		}

		switch key {
		case "BEGIN":
			parent, known := componentParents[value]
			switch {
			case len(stack) == 0 && value != "VCALENDAR":
				return nil, NewCustomError("expecting BEGIN:VCALENDAR", map[string]any{
					"line":    line.n,
					"content": line.text,
				})
			case !known:
				slog.Debug("skipping unhandled BEGIN block", "line", line.n, "content", line.text)
				skipDepth = 1
				continue
			case parent != top():
				return nil, NewCustomError(fmt.Sprintf("%s block not allowed here", value), map[string]any{
					"line":    line.n,
					"content": line.text,
					"parent":  top(),
				})
			}
			stack = append(stack, value)
			switch value {
			case "VCALENDAR":
				sawCalendar = true
			case "VEVENT":
				blankEvent = NewEvent()
			case "VTIMEZONE":
				tz = &vtimezone{}
			case "STANDARD", "DAYLIGHT":
				tz.beginObservance(value == "DAYLIGHT")
			}

		case "END":
			if value != top() {
				return nil, NewCustomError(fmt.Sprintf("unexpected END:%s", value), map[string]any{
					"line":    line.n,
					"content": line.text,
					"open":    top(),
				})
			}
			stack = stack[:len(stack)-1]
			if value == "VTIMEZONE" {
				cal.addTimezone(tz, line.n)
				continue
			}
			if value != "VEVENT" {
				continue
			}

			blankEvent.position = len(cal.events)
			if err := cal.AddEvent(blankEvent); err != nil {
				slog.Warn("keeping suspicious event", "line", line.n, "uid", blankEvent.GetID(), "error", err)
				cal.events = append(cal.events, blankEvent)
			}

		default:
			switch top() {
			case "":
				return nil, NewCustomError("content outside of VCALENDAR", map[string]any{
					"line":    line.n,
					"content": line.text,
				})
			case "VCALENDAR":
				if err := cal.addIcalProperty(line.text); err != nil {
					return nil, NewCustomError("can't add ical property to calendar", map[string]any{
						"line":    line.n,
						"content": line.text,
						"err":     err,
					})
				}
			case "VTIMEZONE", "STANDARD", "DAYLIGHT":
				add := tz.addIcalProperty
				if top() != "VTIMEZONE" {
					add = tz.addObservanceProperty
				}
				if err := add(line.text); err != nil {
					return nil, NewCustomError("can't add ical property to timezone", map[string]any{
						"line":    line.n,
						"content": line.text,
						"err":     err,
					})
				}
			case "VEVENT":
				if err := blankEvent.AddIcalProperty(line.text, cal.lookupZone); err != nil {
					return nil, NewCustomError("can't add ical property to event", map[string]any{
						"line":    line.n,
						"content": line.text,
						"err":     err,
					})
				}
			}
		}
	}

	switch {
	case len(stack) > 0:
		return nil, NewCustomError("unexpected end of file", map[string]any{
			"open": top(),
		})
	case !sawCalendar:
		return nil, NewCustomError("no VCALENDAR block found", nil)
	}

	cal.resolvePendingZones()
	return &cal, nil
}

// Register the location of a complete VTIMEZONE block. A block that can't be
// turned into a location is skipped, its TZID then goes through the system
// tz database.
func (c *Calendar) addTimezone(tz *vtimezone, line int) {
	location, err := tz.location()
	if err != nil {
		slog.Warn("can't build timezone from VTIMEZONE, skipping it", "line", line, "error", err)
		return
	}
	c.zones[tz.tzid] = location
	slog.Debug("timezone defined", "tzid", tz.tzid)
}

func (c *Calendar) lookupZone(tzid string) (*time.Location, bool) {
	location, ok := c.zones[tzid]
	return location, ok
}

// Values whose TZID was only defined later in the file
func (c *Calendar) resolvePendingZones() {
	warned := make(map[string]struct{})
	for i := range c.events {
		for _, tzid := range c.events[i].resolvePendingZones(c.lookupZone) {
			if _, ok := warned[tzid]; ok {
				continue
			}
			warned[tzid] = struct{}{}
			slog.Warn("unknown TZID, treating values as floating time", "tzid", tzid)
		}
	}
}

func (c *Calendar) addIcalProperty(line string) error {
	slice := strings.SplitN(line, ":", 2)
	if len(slice) != 2 {
		return fmt.Errorf("must be splitable by ':', got %s", line)
	}
	key := strings.ToUpper(strings.TrimSpace(slice[0]))
	value := strings.TrimSpace(slice[1])

	switch key {
	case "PRODID":
		c.prodID = value
	case "X-WR-CALNAME":
		c.SetName(value)
	case "X-WR-CALDESC":
		c.SetDescription(value)
	case "X-WR-TIMEZONE":
		c.timezone = value
	}
	return nil
}

// #region Getters

func (c *Calendar) GetID() string {
	return c.id
}

func (c *Calendar) GetProdID() string {
	return c.prodID
}

// Get the calendar name
func (c *Calendar) GetName() string {
	return c.name
}

// Get the calendar description
func (c *Calendar) GetDescription() string {
	return c.description
}

// Get the X-WR-TIMEZONE value, empty if absent
func (c *Calendar) GetTimezone() string {
	return c.timezone
}

// Resolve X-WR-TIMEZONE against the calendar's VTIMEZONE blocks, then the
// tz database. ok is false when the property is absent or unknown.
func (c *Calendar) GetLocation() (*time.Location, bool) {
	if c.timezone == "" {
		return nil, false
	}
	if location, ok := c.lookupZone(c.timezone); ok {
		return location, true
	}
	location, err := time.LoadLocation(c.timezone)
	if err != nil {
		slog.Warn("unknown X-WR-TIMEZONE", "timezone", c.timezone, "error", err)
		return nil, false
	}
	return location, true
}

// Get every event in file order
func (c *Calendar) GetEvents() []Event {
	return c.events
}

// #endregion

// #region Setters

func (c *Calendar) SetName(name string) {
	c.name = name
}

func (c *Calendar) SetDescription(description string) {
	c.description = description
}

// #endregion

// Validate the event and add it to the calendar
func (c *Calendar) AddEvent(event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	c.events = append(c.events, event)
	return nil
}
