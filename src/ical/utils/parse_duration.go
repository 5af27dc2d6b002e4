package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// Parse an RFC5545 DURATION value such as "PT1H30M", "P1D" or "-P2W".
func ParseDuration(value string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("invalid duration: %q", value)
	}

	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var total time.Duration
	found := false
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		found = true
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %q", value)
		}
		total += time.Duration(n) * unit
	}
	if !found {
		return 0, fmt.Errorf("invalid duration: %q", value)
	}
	if m[1] == "-" {
		total = -total
	}
	return total, nil
}
