package domain

import (
	"slices"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for input and output.
const DateLayout = "2006-01-02"

// Record is one daily weather observation.
type Record struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"temperature"`
	Rainfall    float64   `json:"rainfall"`
	Humidity    float64   `json:"humidity"`
}

// Day truncates t to UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Dataset is an immutable, date-ordered collection of records with unique dates.
type Dataset struct {
	records []Record
}

// NewDataset copies records, normalizes their dates, sorts them ascending and
// rejects duplicate dates. The caller's slice is never modified.
func NewDataset(records []Record) (*Dataset, error) {
	sorted := make([]Record, len(records))
	for i, r := range records {
		r.Date = Day(r.Date)
		sorted[i] = r
	}
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return a.Date.Compare(b.Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, &DuplicateDateError{Date: sorted[i].Date}
		}
	}

	return &Dataset{records: sorted}, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the i-th record in date order.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of the records in date order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	return slices.Clone(d.records)
}

// Period returns the first and last dates covered. Both are zero for an empty dataset.
func (d *Dataset) Period() Period {
	if d.Len() == 0 {
		return Period{}
	}
	return Period{From: d.records[0].Date, To: d.records[len(d.records)-1].Date}
}

// Period is an inclusive date range.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Days returns the number of calendar days in the range, or 0 for a zero period.
func (p Period) Days() int {
	if p.From.IsZero() {
		return 0
	}
	return int(p.To.Sub(p.From).Hours()/24) + 1
}

func (d *Dataset) column(field func(Record) float64) []float64 {
	out := make([]float64, len(d.records))
	for i, r := range d.records {
		out[i] = field(r)
	}
	return out
}
