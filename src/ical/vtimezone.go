package ical

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"splitics/src/ical/utils"

	"github.com/xyedo/rrule"
)

var utcOffsetPattern = regexp.MustCompile(`^([+-])(\d{2})(\d{2})(\d{2})?$`)

// Transitions are generated up to this date.
var vtimezoneLimit = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

// One STANDARD or DAYLIGHT sub-component
type tzObservance struct {
	isDST      bool
	name       string
	offsetFrom int
	offsetTo   int
	// onset, wall clock before the transition stored in UTC
	start  time.Time
	rrule  string
	rDates []time.Time
}

// A VTIMEZONE block, turned into a *time.Location once complete.
type vtimezone struct {
	tzid        string
	observances []tzObservance
}

func (tz *vtimezone) beginObservance(isDST bool) {
	tz.observances = append(tz.observances, tzObservance{isDST: isDST})
}

func (tz *vtimezone) addIcalProperty(line string) error {
	prop, err := utils.ParseProperty(line)
	if err != nil {
		return err
	}
	if prop.Name == "TZID" {
		tz.tzid = strings.TrimSpace(prop.Value)
	}
	return nil
}

func (tz *vtimezone) addObservanceProperty(line string) error {
	if len(tz.observances) == 0 {
		return fmt.Errorf("property outside of STANDARD/DAYLIGHT: %s", line)
	}
	o := &tz.observances[len(tz.observances)-1]

	prop, err := utils.ParseProperty(line)
	if err != nil {
		return err
	}
	value := strings.TrimSpace(prop.Value)
	switch prop.Name {
	case "TZNAME":
		o.name = value
	case "TZOFFSETFROM":
		if o.offsetFrom, err = parseUTCOffset(value); err != nil {
			return err
		}
	case "TZOFFSETTO":
		if o.offsetTo, err = parseUTCOffset(value); err != nil {
			return err
		}
	case "DTSTART":
		// always local time, any TZID would be circular
		if o.start, _, err = utils.IcalDatetimeToTime(value, "", nil); err != nil {
			return err
		}
	case "RRULE":
		o.rrule = value
	case "RDATE":
		for _, v := range utils.SplitValues(value) {
			rDate, _, err := utils.IcalDatetimeToTime(v, "", nil)
			if err != nil {
				return err
			}
			o.rDates = append(o.rDates, rDate)
		}
	}
	return nil
}

// "+0530", "-0500", "+023000" -> seconds east of UTC
func parseUTCOffset(s string) (int, error) {
	m := utcOffsetPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid UTC offset: %q", s)
	}
	hh, _ := strconv.Atoi(m[2])
	mm, _ := strconv.Atoi(m[3])
	ss := 0
	if m[4] != "" {
		ss, _ = strconv.Atoi(m[4])
	}
	offset := hh*3600 + mm*60 + ss
	if m[1] == "-" {
		offset = -offset
	}
	return offset, nil
}

// Name for an observance without TZNAME, the way tzdata names such zones:
// "-05", "+0530"
func numericAbbrev(offset int) string {
	sign := "+"
	if offset < 0 {
		sign, offset = "-", -offset
	}
	hh, mm := offset/3600, offset%3600/60
	if mm == 0 {
		return fmt.Sprintf("%s%02d", sign, hh)
	}
	return fmt.Sprintf("%s%02d%02d", sign, hh, mm)
}

type tzTransition struct {
	at   int64
	zone int
}

// Build a location from the observances: every onset is expanded with its
// RRULE and RDATEs, then encoded as TZif data for time.LoadLocationFromTZData.
func (tz *vtimezone) location() (*time.Location, error) {
	if tz.tzid == "" {
		return nil, fmt.Errorf("VTIMEZONE without TZID")
	}
	if len(tz.observances) == 0 {
		return nil, fmt.Errorf("VTIMEZONE %q has no STANDARD or DAYLIGHT block", tz.tzid)
	}

	// standard observances first, so that times before the first transition
	// resolve to a standard zone
	observances := make([]tzObservance, len(tz.observances))
	copy(observances, tz.observances)
	sort.SliceStable(observances, func(i, j int) bool {
		return !observances[i].isDST && observances[j].isDST
	})

	for i := range observances {
		if observances[i].name == "" {
			observances[i].name = numericAbbrev(observances[i].offsetTo)
		}
	}

	transitions := make([]tzTransition, 0)
	for i, o := range observances {
		if o.start.IsZero() {
			return nil, fmt.Errorf("VTIMEZONE %q: observance without DTSTART", tz.tzid)
		}
		onsets, err := o.onsets()
		if err != nil {
			return nil, fmt.Errorf("VTIMEZONE %q: %w", tz.tzid, err)
		}
		for _, onset := range onsets {
			// the onset is given in the wall clock in force before it
			at := onset.Add(-time.Duration(o.offsetFrom) * time.Second)
			transitions = append(transitions, tzTransition{at: at.Unix(), zone: i})
		}
	}
	sort.SliceStable(transitions, func(i, j int) bool {
		return transitions[i].at < transitions[j].at
	})

	data, err := encodeTZif(observances, transitions)
	if err != nil {
		return nil, fmt.Errorf("VTIMEZONE %q: %w", tz.tzid, err)
	}
	return time.LoadLocationFromTZData(tz.tzid, data)
}

func (o tzObservance) onsets() ([]time.Time, error) {
	onsets := []time.Time{o.start}
	if o.rrule != "" {
		rruleSet, err := rrule.StrToRRuleSet(
			"DTSTART:" + o.start.Format("20060102T150405Z") + "\nRRULE:" + o.rrule)
		if err != nil {
			return nil, err
		}
		onsets = append(onsets, rruleSet.Between(o.start, vtimezoneLimit, false)...)
	}
	return append(onsets, o.rDates...), nil
}

// TZif version 2: an empty 32-bit block followed by the 64-bit data and an
// empty footer.
func encodeTZif(observances []tzObservance, transitions []tzTransition) ([]byte, error) {
	if len(observances) > 255 {
		return nil, fmt.Errorf("too many observances: %d", len(observances))
	}

	var abbrevs bytes.Buffer
	abbrevIndex := make(map[string]int)
	for _, o := range observances {
		if _, ok := abbrevIndex[o.name]; ok {
			continue
		}
		abbrevIndex[o.name] = abbrevs.Len()
		abbrevs.WriteString(o.name)
		abbrevs.WriteByte(0)
	}
	if abbrevs.Len() > 255 {
		return nil, fmt.Errorf("time zone names too long")
	}

	var buf bytes.Buffer
	header := func(timeCount, zoneCount, charCount int) {
		buf.WriteString("TZif2")
		buf.Write(make([]byte, 15))
		for _, n := range []int{0, 0, 0, timeCount, zoneCount, charCount} {
			binary.Write(&buf, binary.BigEndian, uint32(n))
		}
	}

	header(0, 0, 0)
	header(len(transitions), len(observances), abbrevs.Len())
	for _, t := range transitions {
		binary.Write(&buf, binary.BigEndian, t.at)
	}
	for _, t := range transitions {
		buf.WriteByte(byte(t.zone))
	}
	for _, o := range observances {
		binary.Write(&buf, binary.BigEndian, int32(o.offsetTo))
		if o.isDST {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		buf.WriteByte(byte(abbrevIndex[o.name]))
	}
	buf.Write(abbrevs.Bytes())
	buf.WriteString("\n\n")

	return buf.Bytes(), nil
}
