package satfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const ext = ".sat"

// Dir manages individual record files, one {catnum}.sat per satellite.
type Dir struct {
	dir string
}

// NewDir creates a Dir rooted at dir.
func NewDir(dir string) *Dir {
	return &Dir{dir: dir}
}

// Path returns the file path for a catalog number.
func (d *Dir) Path(catnum string) string {
	return filepath.Join(d.dir, catnum+ext)
}

// Exists reports whether a record file exists for catnum.
func (d *Dir) Exists(catnum string) (bool, error) {
	_, err := os.Stat(d.Path(catnum))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking record file: %w", err)
}

// Write stores r as the record file for its catalog number, replacing any
// previous file.
func (d *Dir) Write(r Record) error {
	if r.CatalogNumber == "" {
		return fmt.Errorf("record %q has no catalog number", r.Name)
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("creating record dir: %w", err)
	}

	f, err := os.Create(d.Path(r.CatalogNumber))
	if err != nil {
		return fmt.Errorf("creating record file: %w", err)
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing record file %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing record file: %w", err)
	}
	return nil
}

// Read loads the record file for catnum.
func (d *Dir) Read(catnum string) (Record, error) {
	f, err := os.Open(d.Path(catnum))
	if err != nil {
		return Record{}, fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()

	r, err := ReadRecord(f)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", f.Name(), err)
	}
	r.CatalogNumber = catnum
	return r, nil
}

// List returns the catalog numbers of all record files in ascending
// numeric order. Files without a numeric stem are ignored.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing record dir: %w", err)
	}

	type numbered struct {
		catnum string
		n      uint64
	}
	var files []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		catnum := strings.TrimSuffix(name, ext)
		n, err := strconv.ParseUint(catnum, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, numbered{catnum: catnum, n: n})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].n != files[j].n {
			return files[i].n < files[j].n
		}
		return files[i].catnum < files[j].catnum
	})

	nums := make([]string, len(files))
	for i, f := range files {
		nums[i] = f.catnum
	}
	return nums, nil
}
