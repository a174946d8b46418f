package tle

import (
	"errors"
	"fmt"
)

// TLEEntry is one name line plus the two element lines, with the catalog
// number taken from line 2.
type TLEEntry struct {
	CatalogNumber string
	Name          string
	Line1         string
	Line2         string
}

// ErrMalformedRecord matches every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed TLE record")

// MalformedRecordError reports a record that could not be converted.
// Truncated is set when the input ended in the middle of a triple.
type MalformedRecordError struct {
	Line      int
	Name      string
	Reason    string
	Truncated bool
}

func (e *MalformedRecordError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("malformed TLE record %q at line %d: %s", e.Name, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed TLE record at line %d: %s", e.Line, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// FetchError reports a failure retrieving or storing a remote group file.
type FetchError struct {
	Group      string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching group %s from %s: unexpected status code %d", e.Group, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching group %s from %s: %v", e.Group, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
