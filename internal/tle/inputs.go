package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const inputExt = ".txt"

// Inputs manages downloaded TLE files on disk, one {group}.txt per group.
type Inputs struct {
	dir string
}

// NewInputs creates an Inputs rooted at dir.
func NewInputs(dir string) *Inputs {
	return &Inputs{dir: dir}
}

// Path returns the local path for a group's input file.
func (in *Inputs) Path(group string) string {
	return filepath.Join(in.dir, group+inputExt)
}

// Write stores data as the group's input file, replacing any previous one.
func (in *Inputs) Write(group string, data []byte) (string, error) {
	if err := in.ensureDir(); err != nil {
		return "", err
	}

	path := in.Path(group)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing input file: %w", err)
	}
	return path, nil
}

// Open opens the group's input file for reading.
func (in *Inputs) Open(group string) (*os.File, error) {
	f, err := os.Open(in.Path(group))
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	return f, nil
}

// Groups lists the group keys that have an input file, sorted.
func (in *Inputs) Groups() ([]string, error) {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing input dir: %w", err)
	}

	var groups []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, inputExt) {
			continue
		}
		if group := strings.TrimSuffix(name, inputExt); group != "" {
			groups = append(groups, group)
		}
	}

	sort.Strings(groups)
	return groups, nil
}

func (in *Inputs) ensureDir() error {
	return os.MkdirAll(in.dir, 0755)
}
