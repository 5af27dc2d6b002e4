package utils

import (
	"fmt"
	"strings"
)

// A content line split into its parts:
//
//	NAME;PARAM=VALUE;PARAM="QUOTED:VALUE":value
//
// Name and parameter names are upper-cased; parameter values keep their case
// and lose their surrounding quotes.
type Property struct {
	Name   string
	Params map[string]string
	Value  string
}

func (p Property) Param(name string) string {
	return p.Params[strings.ToUpper(name)]
}

func ParseProperty(line string) (Property, error) {
	inQuotes := false
	colon := -1
	for i, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ':':
			if !inQuotes {
				colon = i
			}
		}
		if colon >= 0 {
			break
		}
	}
	if colon < 0 {
		return Property{}, fmt.Errorf("must be splitable by ':', got %s", line)
	}

	head := line[:colon]
	prop := Property{
		Params: make(map[string]string),
		Value:  line[colon+1:],
	}

	parts := splitUnquoted(head, ';')
	prop.Name = strings.ToUpper(strings.TrimSpace(parts[0]))
	if prop.Name == "" {
		return Property{}, fmt.Errorf("missing property name in %s", line)
	}
	for _, part := range parts[1:] {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		prop.Params[strings.ToUpper(strings.TrimSpace(kv[0]))] = strings.Trim(kv[1], `"`)
	}
	return prop, nil
}

func splitUnquoted(s string, sep rune) []string {
	var parts []string
	inQuotes := false
	last := 0
	for i, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == sep && !inQuotes:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}
