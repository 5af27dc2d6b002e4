package splitter

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"splitics/src/utils"
)

// Split a path at its last extension separator. Leading dots of the file
// name never start an extension: ".bashrc" has none, "a.tar.gz" has ".gz".
func SplitExt(path string) (string, string) {
	name := filepath.Base(path)
	ext := filepath.Ext(strings.TrimLeft(name, "."))
	return path[:len(path)-len(ext)], ext
}

// Path of chunk number index for input: "<base>-<index><ext>". With an
// empty outputDir the chunk sits next to the input.
func ChunkPath(input, outputDir string, index int) string {
	base, ext := SplitExt(input)
	if outputDir != "" {
		base = filepath.Join(outputDir, filepath.Base(base))
	}
	return base + "-" + strconv.Itoa(index) + ext
}

// chunkWriter owns at most one open chunk file at a time.
type chunkWriter struct {
	input     string
	outputDir string
	preamble  []string
	metric    *utils.Metric

	file  *os.File
	buf   *bufio.Writer
	path  string
	paths []string
}

func (c *chunkWriter) isOpen() bool {
	return c.file != nil
}

// Create chunk number index and write the preamble into it.
func (c *chunkWriter) open(index int) error {
	if c.isOpen() {
		if err := c.close(); err != nil {
			return err
		}
	}

	path := ChunkPath(c.input, c.outputDir, index)
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
			return &FileError{Op: "create", Path: c.outputDir, Err: err}
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return &FileError{Op: "create", Path: path, Err: err}
	}
	slog.Info("generating chunk", "path", path, "index", index)

	c.file = file
	c.buf = bufio.NewWriter(file)
	c.path = path
	c.paths = append(c.paths, path)
	c.metric.IncSplitChunks()

	for _, line := range c.preamble {
		if _, err := c.buf.WriteString(line); err != nil {
			return &FileError{Op: "write", Path: path, Err: err}
		}
	}
	return nil
}

func (c *chunkWriter) writeLine(line string) error {
	if _, err := c.buf.WriteString(line); err != nil {
		return &FileError{Op: "write", Path: c.path, Err: err}
	}
	return nil
}

// Flush and close the current chunk, no-op when nothing is open.
func (c *chunkWriter) close() error {
	if !c.isOpen() {
		return nil
	}
	file, buf, path := c.file, c.buf, c.path
	c.file, c.buf, c.path = nil, nil, ""

	if err := buf.Flush(); err != nil {
		file.Close()
		return &FileError{Op: "write", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &FileError{Op: "close", Path: path, Err: err}
	}
	return nil
}
