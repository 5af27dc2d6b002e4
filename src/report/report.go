// Package report renders calendar events as the plain text listing produced
// by `splitics ics`.
package report

import (
	"fmt"
	"os"
	"strings"

	"splitics/src/ical"
	"splitics/src/utils"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
	separator      = "----------------------------------------"
)

type Options struct {
	// Path shown in the header
	Source string
	// Add a UID line to every event
	ShowUID bool
}

// Render the events, already sorted, into the report text. Lines are joined
// with "\n" and the text has no trailing newline.
func Render(events []ical.StaticEvent, opts Options) string {
	lines := make([]string, 0, 2+len(events)*7+1)
	lines = append(lines, fmt.Sprintf("--- Calendar Events from: %s (Sorted by Date/Time) ---", opts.Source))
	lines = append(lines, "")

	for _, e := range events {
		summary := strings.TrimSpace(e.Summary)
		if summary == "" {
			summary = ical.NoTitle
		}
		lines = append(lines, "  Title: "+summary)

		if !e.Start.IsZero() {
			lines = append(lines, "  Start: "+FormatDatetime(e.Start))
		}
		if !e.End.IsZero() {
			lines = append(lines, "  End: "+FormatDatetime(e.End))
		}
		if location := strings.TrimSpace(e.Location); location != "" {
			lines = append(lines, "  Location: "+location)
		}
		if description := utils.CleanupString(e.Description); description != "" {
			lines = append(lines, "  Description: "+description)
		}
		if opts.ShowUID {
			uid := strings.TrimSpace(e.UID)
			if uid == "" {
				uid = ical.NoUID
			}
			lines = append(lines, "  UID: "+uid)
		}
		lines = append(lines, separator)
	}

	lines = append(lines, "\n--- End of Calendar Events ---")
	return strings.Join(lines, "\n")
}

// Format one DTSTART/DTEND value:
//   - date:     2024-03-05 (All Day Event)
//   - floating: 2024-03-05 10:00:00 (Local Time/No TZ info)
//   - UTC:      2024-03-05 10:00:00 UTC+0000
//   - zoned:    2024-03-05 10:00:00 CET+0100
func FormatDatetime(d ical.Datetime) string {
	switch d.Kind {
	case ical.DateKindDate:
		return d.Time.Format(dateLayout) + " (All Day Event)"
	case ical.DateKindFloating:
		return d.Time.Format(datetimeLayout) + " (Local Time/No TZ info)"
	default:
		return d.Time.Format(datetimeLayout + " MST-0700")
	}
}

// Write the report to path as UTF-8, replacing any existing file.
func Write(path string, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("can't write report to %s: %w", path, err)
	}
	return nil
}
