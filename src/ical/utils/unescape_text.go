package utils

import "strings"

// Undo RFC5545 TEXT escaping: \n and \N become a newline; \, \; and \\ lose
// their backslash. Unknown escapes are kept as they are.
func UnescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			sb.WriteByte(s[i])
			continue
		}
		switch next := s[i+1]; next {
		case 'n', 'N':
			sb.WriteByte('\n')
			i++
		case ',', ';', '\\':
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// Split a multi-valued property (EXDATE, RDATE) on unescaped commas.
func SplitValues(s string) []string {
	values := make([]string, 0)
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
