package splitter

import (
	"errors"
	"fmt"
)

// Inputs must be regular files, directories and devices are refused.
var ErrNotRegular = errors.New("not a regular file")

// FileError names the file an operation failed on. Op is one of "open",
// "read", "create", "write" or "close".
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("can't %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
