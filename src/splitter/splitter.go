// Package splitter cuts line oriented text files into numbered chunks of at
// most MaxLines lines each, repeating an optional preamble at the top of
// every chunk.
//
// For an input "dir/data.csv" the chunks are "dir/data-0.csv",
// "dir/data-1.csv", ... The line counter and the chunk numbering restart for
// every input file. A chunk is only created once there is a line to put in
// it, so an input of exactly k*MaxLines lines yields k chunks; an empty input
// still yields a single preamble-only chunk "-0".
package splitter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"splitics/src/utils"
)

type Options struct {
	// Maximum number of content lines per chunk, preamble excluded.
	MaxLines int
	// Written verbatim at the top of every chunk.
	Preamble []string
	// Where chunks go; empty means next to each input.
	OutputDir string
	// Process every input even after one of them failed.
	KeepGoing bool
}

// Outcome for one input file.
type Result struct {
	Input  string
	Chunks []string
	Lines  int
	Err    error
}

type Splitter struct {
	opts   Options
	metric *utils.Metric
}

// metric may be nil.
func New(opts Options, metric *utils.Metric) (*Splitter, error) {
	if opts.MaxLines <= 0 {
		return nil, fmt.Errorf("splitter.New: max lines must be positive, got %d", opts.MaxLines)
	}
	if opts.Preamble == nil {
		opts.Preamble = []string{}
	}
	return &Splitter{opts: opts, metric: metric}, nil
}

// Split every input in order. Without KeepGoing the batch stops at the first
// failing input and only the results gathered so far are returned. The
// returned error joins every per-file error.
func (s *Splitter) Run(inputs []string) ([]Result, error) {
	results := make([]Result, 0, len(inputs))
	var errs []error
	for _, input := range inputs {
		result := s.SplitFile(input)
		results = append(results, result)
		if result.Err == nil {
			s.metric.IncSplitInputFile("ok")
			slog.Info("input split",
				"input", input,
				"lines", utils.FormatCount(result.Lines),
				"chunks", len(result.Chunks))
			continue
		}

		s.metric.IncSplitInputFile("error")
		slog.Error("can't split input", "input", input, "error", result.Err)
		errs = append(errs, result.Err)
		if !s.opts.KeepGoing {
			break
		}
	}
	return results, errors.Join(errs...)
}

// Split a single input file into chunks.
func (s *Splitter) SplitFile(input string) Result {
	result := Result{Input: input}

	file, err := os.Open(input)
	if err != nil {
		result.Err = &FileError{Op: "open", Path: input, Err: err}
		return result
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		result.Err = &FileError{Op: "open", Path: input, Err: err}
		return result
	}
	if !info.Mode().IsRegular() {
		result.Err = &FileError{Op: "open", Path: input, Err: ErrNotRegular}
		return result
	}

	cw := &chunkWriter{
		input:     input,
		outputDir: s.opts.OutputDir,
		preamble:  s.opts.Preamble,
		metric:    s.metric,
	}
	result.Lines, result.Err = s.split(file, input, cw)
	if err := cw.close(); err != nil && result.Err == nil {
		result.Err = err
	}
	result.Chunks = cw.paths
	return result
}

func (s *Splitter) split(r io.Reader, input string, cw *chunkWriter) (int, error) {
	maxLines := s.opts.MaxLines
	if err := cw.open(0); err != nil {
		return 0, err
	}

	count := 0
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" {
			// previous chunk was closed on a boundary
			if !cw.isOpen() {
				if err := cw.open(count / maxLines); err != nil {
					return count, err
				}
			}
			count++
			if err := cw.writeLine(line); err != nil {
				return count, err
			}
			s.metric.AddSplitLines(1)
			slog.Debug("line", "n", count, "content", strings.TrimSpace(line))

			if count%maxLines == 0 {
				if err := cw.close(); err != nil {
					return count, err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			return count, nil
		}
		if readErr != nil {
			return count, &FileError{Op: "read", Path: input, Err: readErr}
		}
	}
}
