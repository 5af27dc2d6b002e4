package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
)

// Resolve a date bound given on the command line. Accepted forms, in order:
//   - RFC 3339 (2024-05-01T10:00:00+02:00)
//   - plain date (2024-05-01), midnight in loc
//   - natural language understood by the when parser ("next monday", "in 2 weeks"),
//     relative to base
func ParseDateBound(w *when.Parser, text string, base time.Time, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("ParseDateBound: empty value")
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", text, loc); err == nil {
		return t, nil
	}

	if w == nil {
		return time.Time{}, fmt.Errorf("ParseDateBound: can't understand %q", text)
	}
	result, err := w.Parse(text, base.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDateBound: %w", err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("ParseDateBound: can't understand %q", text)
	}
	return result.Time, nil
}
