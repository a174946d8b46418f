package satfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Aggregate merges every record file in src into a single file at dst,
// each preceded by its [catnum] header, in ascending catalog number order.
// Record files are copied byte for byte. dst is replaced atomically.
// It returns the number of sections written.
func Aggregate(src *Dir, dst string) (int, error) {
	nums, err := src.List()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("creating aggregate dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return 0, fmt.Errorf("creating aggregate temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, catnum := range nums {
		if err := copySection(w, catnum, src.Path(catnum)); err != nil {
			tmp.Close()
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing aggregate: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("setting aggregate mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing aggregate: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, fmt.Errorf("replacing aggregate: %w", err)
	}
	return len(nums), nil
}

func copySection(w io.Writer, catnum, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(w, SectionHeader(catnum)); err != nil {
		return fmt.Errorf("writing aggregate: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copying %s into aggregate: %w", path, err)
	}
	return nil
}

// Appender adds sections to the end of an existing aggregate file.
type Appender struct {
	f *os.File
	w *bufio.Writer
	n int
}

// OpenAppender opens path for appending, creating it if needed.
func OpenAppender(path string) (*Appender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating aggregate dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening aggregate: %w", err)
	}
	return &Appender{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes r as a new section.
func (a *Appender) Append(r Record) error {
	if err := WriteSection(a.w, r); err != nil {
		return fmt.Errorf("appending to aggregate: %w", err)
	}
	a.n++
	return nil
}

// Count returns the number of sections appended so far.
func (a *Appender) Count() int {
	return a.n
}

// Close flushes pending sections and closes the file.
func (a *Appender) Close() error {
	flushErr := a.w.Flush()
	closeErr := a.f.Close()
	if flushErr != nil {
		return fmt.Errorf("flushing aggregate: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing aggregate: %w", closeErr)
	}
	return nil
}
