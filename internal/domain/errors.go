package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for matching with errors.Is.
var (
	ErrMalformedRow       = errors.New("malformed row")
	ErrDuplicateDate      = errors.New("duplicate date")
	ErrEmptyDataset       = errors.New("empty dataset")
	ErrMissingSectionData = errors.New("missing section data")
)

// MalformedRowError reports an input row that could not be turned into a Record.
// Line is 1-based and counts the header row.
type MalformedRowError struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: column %q value %q: %s", e.Line, e.Column, e.Value, e.Reason)
}

func (e *MalformedRowError) Unwrap() error { return ErrMalformedRow }

// DuplicateDateError reports two records for the same calendar day.
// Line numbers are 0 when the records did not come from a file.
type DuplicateDateError struct {
	Date      time.Time
	FirstLine int
	Line      int
}

func (e *DuplicateDateError) Error() string {
	day := e.Date.Format(DateLayout)
	if e.Line == 0 {
		return fmt.Sprintf("date %s appears more than once", day)
	}
	return fmt.Sprintf("line %d: date %s already seen on line %d", e.Line, day, e.FirstLine)
}

func (e *DuplicateDateError) Unwrap() error { return ErrDuplicateDate }

// EmptyDatasetError is returned when an aggregation is asked to summarize no records.
type EmptyDatasetError struct {
	Operation string
}

func (e *EmptyDatasetError) Error() string {
	return e.Operation + ": dataset has no records"
}

func (e *EmptyDatasetError) Unwrap() error { return ErrEmptyDataset }

// MissingSectionDataError is returned when a report is rendered without the
// data one of its required sections needs.
type MissingSectionDataError struct {
	Section string
}

func (e *MissingSectionDataError) Error() string {
	return fmt.Sprintf("report section %q has no data", e.Section)
}

func (e *MissingSectionDataError) Unwrap() error { return ErrMissingSectionData }
