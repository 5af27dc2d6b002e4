package splitter_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splitics/src/splitter"
)

func writeInput(t *testing.T, dir, name string, lines int) (string, string) {
	t.Helper()
	var sb strings.Builder
	for i := 1; i <= lines; i++ {
		sb.WriteString(fmt.Sprintf("line %d\n", i))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, sb.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func newSplitter(t *testing.T, opts splitter.Options) *splitter.Splitter {
	t.Helper()
	s, err := splitter.New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSplitExactMultiple(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeInput(t, dir, "data.txt", 6)
	s := newSplitter(t, splitter.Options{MaxLines: 3, Preamble: []string{"# header\n"}})

	results, err := s.Run([]string{input})
	if err != nil {
		t.Fatal(err)
	}
	got := results[0]
	want := []string{filepath.Join(dir, "data-0.txt"), filepath.Join(dir, "data-1.txt")}
	if strings.Join(got.Chunks, ",") != strings.Join(want, ",") {
		t.Fatalf("chunks: got %v, want %v", got.Chunks, want)
	}
	if got.Lines != 6 {
		t.Errorf("lines: got %d, want 6", got.Lines)
	}
	if c := readFile(t, want[0]); c != "# header\nline 1\nline 2\nline 3\n" {
		t.Errorf("chunk 0: %q", c)
	}
	if c := readFile(t, want[1]); c != "# header\nline 4\nline 5\nline 6\n" {
		t.Errorf("chunk 1: %q", c)
	}
	if _, err := os.Stat(filepath.Join(dir, "data-2.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no trailing empty chunk expected, stat err: %v", err)
	}
}

func TestSplitRemainder(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeInput(t, dir, "data.csv", 7)
	s := newSplitter(t, splitter.Options{MaxLines: 3})

	results, err := s.Run([]string{input})
	if err != nil {
		t.Fatal(err)
	}
	chunks := results[0].Chunks
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if c := readFile(t, chunks[2]); c != "line 7\n" {
		t.Errorf("last chunk: %q", c)
	}
	// no preamble, no header lines
	if c := readFile(t, chunks[0]); c != "line 1\nline 2\nline 3\n" {
		t.Errorf("first chunk: %q", c)
	}
}

func TestSplitLossless(t *testing.T) {
	dir := t.TempDir()
	content := "a\r\nb\n\nc\r\nd\nunterminated"
	input := filepath.Join(dir, "mixed.log")
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	preamble := []string{"H1\n", "H2\n"}
	s := newSplitter(t, splitter.Options{MaxLines: 2, Preamble: preamble})

	results, err := s.Run([]string{input})
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	for _, chunk := range results[0].Chunks {
		c := readFile(t, chunk)
		if !strings.HasPrefix(c, "H1\nH2\n") {
			t.Fatalf("%s misses preamble: %q", chunk, c)
		}
		sb.WriteString(strings.TrimPrefix(c, "H1\nH2\n"))
	}
	if sb.String() != content {
		t.Errorf("round trip: got %q, want %q", sb.String(), content)
	}
	if results[0].Lines != 6 {
		t.Errorf("lines: got %d, want 6", results[0].Lines)
	}
}

func TestSplitOneLinePerChunk(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeInput(t, dir, "one.txt", 4)
	s := newSplitter(t, splitter.Options{MaxLines: 1, Preamble: []string{"P\n"}})

	results, err := s.Run([]string{input})
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0].Chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(results[0].Chunks))
	}
	for i, chunk := range results[0].Chunks {
		want := fmt.Sprintf("P\nline %d\n", i+1)
		if c := readFile(t, chunk); c != want {
			t.Errorf("chunk %d: got %q, want %q", i, c, want)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeInput(t, dir, "empty.txt", 0)
	s := newSplitter(t, splitter.Options{MaxLines: 5, Preamble: []string{"only header\n"}})

	results, err := s.Run([]string{input})
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0].Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(results[0].Chunks))
	}
	if c := readFile(t, results[0].Chunks[0]); c != "only header\n" {
		t.Errorf("chunk: %q", c)
	}
}

func TestSplitNumberingRestartsPerInput(t *testing.T) {
	dir := t.TempDir()
	first, _ := writeInput(t, dir, "first.txt", 5)
	second, _ := writeInput(t, dir, "second.txt", 2)
	s := newSplitter(t, splitter.Options{MaxLines: 2})

	results, err := s.Run([]string{first, second})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if want := filepath.Join(dir, "second-0.txt"); results[1].Chunks[0] != want {
		t.Errorf("second input starts at %s, want %s", results[1].Chunks[0], want)
	}
	if len(results[1].Chunks) != 1 {
		t.Errorf("second input: got %d chunks, want 1", len(results[1].Chunks))
	}
	if len(results[0].Chunks) != 3 {
		t.Errorf("first input: got %d chunks, want 3", len(results[0].Chunks))
	}
}

func TestSplitOutputDir(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeInput(t, dir, "data.txt", 3)
	out := filepath.Join(dir, "out", "nested")
	s := newSplitter(t, splitter.Options{MaxLines: 2, OutputDir: out})

	results, err := s.Run([]string{input})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(out, "data-0.txt"), filepath.Join(out, "data-1.txt")}
	if strings.Join(results[0].Chunks, ",") != strings.Join(want, ",") {
		t.Errorf("chunks: got %v, want %v", results[0].Chunks, want)
	}
}

func TestSplitMissingInput(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")
	good, _ := writeInput(t, dir, "good.txt", 1)

	// case: fail fast stops the batch
	func() {
		s := newSplitter(t, splitter.Options{MaxLines: 10})
		results, err := s.Run([]string{missing, good})
		if err == nil {
			t.Fatal("expected an error")
		}
		var fileErr *splitter.FileError
		if !errors.As(err, &fileErr) {
			t.Fatalf("expected a FileError, got %T", err)
		}
		if fileErr.Path != missing || fileErr.Op != "open" {
			t.Errorf("got %+v", fileErr)
		}
		if len(results) != 1 {
			t.Errorf("got %d results, want 1", len(results))
		}
		if _, err := os.Stat(filepath.Join(dir, "good-0.txt")); !errors.Is(err, os.ErrNotExist) {
			t.Error("second input should not have been processed")
		}
	}()

	// case: keep going processes the rest
	func() {
		s := newSplitter(t, splitter.Options{MaxLines: 10, KeepGoing: true})
		results, err := s.Run([]string{missing, good})
		if err == nil {
			t.Fatal("expected an error")
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		if results[0].Err == nil || results[1].Err != nil {
			t.Errorf("unexpected per-file errors: %v / %v", results[0].Err, results[1].Err)
		}
		if c := readFile(t, filepath.Join(dir, "good-0.txt")); c != "line 1\n" {
			t.Errorf("chunk: %q", c)
		}
	}()
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := splitter.New(splitter.Options{MaxLines: size}, nil); err == nil {
			t.Errorf("size %d: expected an error", size)
		}
	}
}

func TestSplitOutputDirIsAFile(t *testing.T) {
	dir := t.TempDir()
	first, _ := writeInput(t, dir, "first.txt", 1)
	second, _ := writeInput(t, dir, "second.txt", 1)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newSplitter(t, splitter.Options{MaxLines: 10, OutputDir: blocker})
	results, err := s.Run([]string{first, second})
	var fileErr *splitter.FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected a FileError, got %v", err)
	}
	if fileErr.Op != "create" {
		t.Errorf("op: got %q, want create", fileErr.Op)
	}
	if len(results) != 1 || results[0].Input != first {
		t.Errorf("second input should not have been processed: %+v", results)
	}
	if c := readFile(t, blocker); c != "x" {
		t.Errorf("blocker was modified: %q", c)
	}
}

func TestSplitDirectoryInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "logs")
	if err := os.Mkdir(input, 0o755); err != nil {
		t.Fatal(err)
	}

	s := newSplitter(t, splitter.Options{MaxLines: 10})
	_, err := s.Run([]string{input})
	var fileErr *splitter.FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected a FileError, got %v", err)
	}
	if fileErr.Op != "open" || fileErr.Path != input || !errors.Is(err, splitter.ErrNotRegular) {
		t.Errorf("got %+v", fileErr)
	}
	if _, err := os.Stat(input + "-0"); !errors.Is(err, os.ErrNotExist) {
		t.Error("no chunk expected for a directory input")
	}
}
