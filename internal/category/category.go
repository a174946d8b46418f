// Package category maintains the per-group category files: an optional
// descriptive label line followed by one catalog number per line.
package category

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const ext = ".cat"

// Path returns the category file path for group in dir.
func Path(dir, group string) string {
	return filepath.Join(dir, group+ext)
}

// RecordSet reports whether a satellite already has an individual record.
type RecordSet interface {
	Exists(catnum string) (bool, error)
}

// Writer adds catalog numbers to a category file.
type Writer struct {
	f     *os.File
	w     *bufio.Writer
	known RecordSet
	added int
	// dst is set for a rebuilt file, which is written to f as a temp file
	// and renamed over dst on Close.
	dst string
}

// Create starts a new category file that replaces path on Close. Until
// then any existing file at path is left untouched. A non-empty label is
// written as the first line.
func Create(path, label string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating category dir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("creating category temp file: %w", err)
	}

	cw := &Writer{f: f, w: bufio.NewWriter(f), dst: path}
	if label != "" {
		if _, err := cw.w.WriteString(label + "\n"); err != nil {
			cw.Abort()
			return nil, fmt.Errorf("writing category label: %w", err)
		}
	}
	return cw, nil
}

// OpenIncremental opens the category file at path for appending, creating
// it if needed. Known reports the catalog numbers that already have a
// record in known. Existing lines are never modified.
func OpenIncremental(path string, known RecordSet) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating category dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening category file: %w", err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f), known: known}, nil
}

// Known reports whether catnum already has an individual record and must
// not be added again. It is always false for a rebuilt file.
func (cw *Writer) Known(catnum string) (bool, error) {
	if cw.known == nil {
		return false, nil
	}
	return cw.known.Exists(catnum)
}

// Add appends catnum.
func (cw *Writer) Add(catnum string) error {
	if _, err := cw.w.WriteString(catnum + "\n"); err != nil {
		return fmt.Errorf("writing category file: %w", err)
	}
	cw.added++
	return nil
}

// Added returns the number of catalog numbers written by this writer.
func (cw *Writer) Added() int {
	return cw.added
}

// Close flushes and closes the file. A rebuilt file replaces the previous
// one atomically.
func (cw *Writer) Close() error {
	flushErr := cw.w.Flush()
	closeErr := cw.f.Close()
	if flushErr != nil {
		cw.removeTemp()
		return fmt.Errorf("flushing category file: %w", flushErr)
	}
	if closeErr != nil {
		cw.removeTemp()
		return fmt.Errorf("closing category file: %w", closeErr)
	}
	if cw.dst == "" {
		return nil
	}
	if err := os.Chmod(cw.f.Name(), 0644); err != nil {
		cw.removeTemp()
		return fmt.Errorf("setting category file mode: %w", err)
	}
	if err := os.Rename(cw.f.Name(), cw.dst); err != nil {
		cw.removeTemp()
		return fmt.Errorf("replacing category file: %w", err)
	}
	return nil
}

// Abort discards a rebuilt file, keeping the previous one. An incremental
// file keeps the lines added so far.
func (cw *Writer) Abort() error {
	if cw.dst == "" {
		return cw.Close()
	}
	cw.f.Close()
	cw.removeTemp()
	return nil
}

func (cw *Writer) removeTemp() {
	if cw.dst != "" {
		os.Remove(cw.f.Name())
	}
}

// File is the parsed content of a category file.
type File struct {
	Label   string
	Numbers []string
}

// Read parses the category file at path. A first line that is not a
// catalog number is taken as the label.
func Read(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("opening category file: %w", err)
	}
	defer f.Close()

	var cf File
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first && !isNumber(line) {
			cf.Label = line
		} else {
			cf.Numbers = append(cf.Numbers, line)
		}
		first = false
	}
	if err := scanner.Err(); err != nil {
		return File{}, fmt.Errorf("reading category file: %w", err)
	}
	return cf, nil
}

func isNumber(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
