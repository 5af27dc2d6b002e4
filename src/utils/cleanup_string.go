package utils

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// strips spaces, collapses every whitespace run (newlines included) into one space
func CleanupString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// 1234567 -> "1,234,567"
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
