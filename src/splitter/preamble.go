package splitter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Read a header file as a list of lines, terminators kept. On failure the
// returned preamble is empty (never nil) so callers can carry on without it.
func LoadPreamble(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return []string{}, fmt.Errorf("LoadPreamble: %w", &FileError{Op: "open", Path: path, Err: err})
	}
	defer file.Close()

	lines, err := ReadLines(file)
	if err != nil {
		return []string{}, fmt.Errorf("LoadPreamble: %w", &FileError{Op: "read", Path: path, Err: err})
	}
	return lines, nil
}

// Split r into lines exactly as they appear, each keeping its "\n" or "\r\n".
// A final line without terminator is kept as is.
func ReadLines(r io.Reader) ([]string, error) {
	lines := make([]string, 0)
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
