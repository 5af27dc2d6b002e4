package ical

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type CustomError struct {
	msg  string
	args map[string]any
}

// Create a new custom error
func NewCustomError(msg string, args map[string]any) *CustomError {
	if args == nil {
		args = make(map[string]any)
	}
	return &CustomError{
		msg:  msg,
		args: args,
	}
}

// Get the error message
func (e CustomError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.msg)
	if len(e.args) == 0 {
		return sb.String()
	}
	sb.WriteString(" |")

	keys := make([]string, 0, len(e.args))
	for key := range e.args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteString(fmt.Sprintf(" %s: %v", key, e.args[key]))
	}
	return sb.String()
}

// Get the line number the error was raised at, 0 if unknown
func (e CustomError) Line() int {
	if line, ok := e.args["line"].(int); ok {
		return line
	}
	return 0
}

// Expose the "err" arg to errors.Is / errors.As
func (e CustomError) Unwrap() error {
	if err, ok := e.args["err"].(error); ok {
		return err
	}
	return nil
}

// Is the error a parsing error raised by this package
func IsCustomError(err error) bool {
	var customErr *CustomError
	return errors.As(err, &customErr)
}
