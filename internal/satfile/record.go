// Package satfile reads and writes satellite record files.
//
// A record is five KEY=value lines in fixed order:
//
//	VERSION=1.1
//	NAME=ISS (ZARYA)
//	NICKNAME=ISS
//	TLE1=1 25544U ...
//	TLE2=2 25544 ...
//
// Records live one per file as {catnum}.sat, and as [catnum] sections in
// the aggregate file.
package satfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/csete/gpredict/internal/tle"
)

// Version is written as the VERSION field of every record.
const Version = "1.1"

// Record is one satellite record.
type Record struct {
	CatalogNumber string
	Name          string
	Nickname      string
	TLE1          string
	TLE2          string
}

// NewRecord builds a record from a parsed TLE entry.
func NewRecord(e tle.TLEEntry, nickname string) Record {
	return Record{
		CatalogNumber: e.CatalogNumber,
		Name:          e.Name,
		Nickname:      nickname,
		TLE1:          e.Line1,
		TLE2:          e.Line2,
	}
}

// WriteTo writes the five record lines to w.
func (r Record) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "VERSION=%s\nNAME=%s\nNICKNAME=%s\nTLE1=%s\nTLE2=%s\n",
		Version, r.Name, r.Nickname, r.TLE1, r.TLE2)
	return int64(n), err
}

// String returns the serialized record.
func (r Record) String() string {
	var sb strings.Builder
	r.WriteTo(&sb)
	return sb.String()
}

// SectionHeader returns the aggregate header preceding a record body.
func SectionHeader(catnum string) string {
	return "\n[" + catnum + "]\n"
}

// WriteSection writes r to w as an aggregate section.
func WriteSection(w io.Writer, r Record) error {
	if _, err := io.WriteString(w, SectionHeader(r.CatalogNumber)); err != nil {
		return err
	}
	_, err := r.WriteTo(w)
	return err
}

// ReadRecord parses a record body. Unknown keys are ignored; the catalog
// number is not part of the body and is left empty.
func ReadRecord(rd io.Reader) (Record, error) {
	var r Record
	var version string
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Record{}, fmt.Errorf("invalid record line %q", line)
		}
		switch key {
		case "VERSION":
			version = value
		case "NAME":
			r.Name = value
		case "NICKNAME":
			r.Nickname = value
		case "TLE1":
			r.TLE1 = value
		case "TLE2":
			r.TLE2 = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("reading record: %w", err)
	}
	if version == "" {
		return Record{}, fmt.Errorf("record has no VERSION field")
	}
	return r, nil
}
