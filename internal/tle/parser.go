package tle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader reads 3-line NORAD TLE records one at a time.
//
// Reading stops at the first blank line or EOF where a name line is
// expected. A record whose element lines are missing is reported once as a
// truncated *MalformedRecordError and then Read returns io.EOF.
// Other *MalformedRecordError values are not fatal; the caller may keep
// reading.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	done    bool
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Read returns the next record.
func (r *Reader) Read() (TLEEntry, error) {
	if r.done {
		return TLEEntry{}, io.EOF
	}

	name, ok, err := r.next()
	if err != nil {
		return TLEEntry{}, err
	}
	if !ok || name == "" {
		r.done = true
		return TLEEntry{}, io.EOF
	}
	nameLine := r.line

	line1, ok1, err := r.next()
	if err != nil {
		return TLEEntry{}, err
	}
	line2, ok2, err := r.next()
	if err != nil {
		return TLEEntry{}, err
	}
	if !ok1 || !ok2 || line1 == "" || line2 == "" {
		r.done = true
		return TLEEntry{}, &MalformedRecordError{
			Line:      nameLine,
			Name:      name,
			Reason:    "input ends before both element lines",
			Truncated: true,
		}
	}

	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return TLEEntry{}, &MalformedRecordError{Line: nameLine, Name: name, Reason: "element lines must start with \"1 \" and \"2 \""}
	}

	catnum, err := CatalogNumber(line2)
	if err != nil {
		var mre *MalformedRecordError
		if errors.As(err, &mre) {
			mre.Line = nameLine + 2
			mre.Name = name
		}
		return TLEEntry{}, err
	}

	return TLEEntry{
		CatalogNumber: catnum,
		Name:          name,
		Line1:         line1,
		Line2:         line2,
	}, nil
}

// next returns the next line with surrounding whitespace removed.
// ok is false at EOF.
func (r *Reader) next() (string, bool, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", false, fmt.Errorf("reading TLE data: %w", err)
		}
		return "", false, nil
	}
	r.line++
	return strings.TrimSpace(r.scanner.Text()), true, nil
}

// CatalogNumber extracts the catalog number from columns 3-7 of TLE line 2
// (0-indexed 2..7) with leading zeros stripped.
func CatalogNumber(line2 string) (string, error) {
	if len(line2) < 7 {
		return "", &MalformedRecordError{Reason: fmt.Sprintf("line 2 too short for catalog number: %q", line2)}
	}
	field := strings.TrimSpace(line2[2:7])
	if field == "" {
		return "", &MalformedRecordError{Reason: "empty catalog number"}
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return "", &MalformedRecordError{Reason: fmt.Sprintf("catalog number %q is not numeric", field)}
		}
	}
	catnum := strings.TrimLeft(field, "0")
	if catnum == "" {
		return "", &MalformedRecordError{Reason: fmt.Sprintf("catalog number %q is zero", field)}
	}
	return catnum, nil
}
