// Package csvfile loads daily weather records from comma-separated files.
//
// The first row must be a header naming at least the date, temperature,
// rainfall and humidity columns (case-insensitive, any order). Extra columns
// are ignored. Dates use the ISO-8601 calendar format 2006-01-02.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-report/internal/domain"
)

const (
	colDate        = "date"
	colTemperature = "temperature"
	colRainfall    = "rainfall"
	colHumidity    = "humidity"
)

var requiredColumns = []string{colDate, colTemperature, colRainfall, colHumidity}

// Loader reads a Dataset from a CSV file on disk.
// It implements pipeline.DatasetLoader.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for the file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// Source returns the path the loader reads from.
func (l *Loader) Source() string { return l.path }

// Load opens the file and parses it. No Dataset is returned unless every row is valid.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.path, err)
	}

	period := ds.Period()
	l.logger.Info("dataset loaded",
		"path", l.path,
		"records", ds.Len(),
		"from", period.From.Format(domain.DateLayout),
		"to", period.To.Format(domain.DateLayout),
	)
	return ds, nil
}

// Parse reads a header row followed by daily records and returns a sorted Dataset.
// It fails with *domain.MalformedRowError or *domain.DuplicateDateError.
func Parse(r io.Reader) (*domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.MalformedRowError{Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, parseError(err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	seen := make(map[time.Time]int)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseRow(row, cols, line)
		if err != nil {
			return nil, err
		}

		if first, dup := seen[rec.Date]; dup {
			return nil, &domain.DuplicateDateError{Date: rec.Date, FirstLine: first, Line: line}
		}
		seen[rec.Date] = line
		records = append(records, rec)
	}

	return domain.NewDataset(records)
}

// columnIndex maps required column names to their position in a row.
type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(requiredColumns))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}

	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &domain.MalformedRowError{Line: 1, Column: name, Reason: "required column missing from header"}
		}
	}
	return cols, nil
}

func parseRow(row []string, cols columnIndex, line int) (domain.Record, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(row) || strings.TrimSpace(row[i]) == "" {
			return "", &domain.MalformedRowError{Line: line, Column: name, Reason: "missing value"}
		}
		return strings.TrimSpace(row[i]), nil
	}

	rawDate, err := field(colDate)
	if err != nil {
		return domain.Record{}, err
	}
	date, err := time.Parse(domain.DateLayout, rawDate)
	if err != nil {
		return domain.Record{}, &domain.MalformedRowError{Line: line, Column: colDate, Value: rawDate, Reason: "not an ISO-8601 date"}
	}

	temp, err := parseNumber(field, colTemperature, line)
	if err != nil {
		return domain.Record{}, err
	}
	rain, err := parseNumber(field, colRainfall, line)
	if err != nil {
		return domain.Record{}, err
	}
	if rain < 0 {
		return domain.Record{}, &domain.MalformedRowError{Line: line, Column: colRainfall, Value: formatValue(rain), Reason: "must not be negative"}
	}
	hum, err := parseNumber(field, colHumidity, line)
	if err != nil {
		return domain.Record{}, err
	}
	if hum < 0 || hum > 100 {
		return domain.Record{}, &domain.MalformedRowError{Line: line, Column: colHumidity, Value: formatValue(hum), Reason: "must be between 0 and 100"}
	}

	return domain.Record{
		Date:        date,
		Temperature: temp,
		Rainfall:    rain,
		Humidity:    hum,
	}, nil
}

func parseNumber(field func(string) (string, error), name string, line int) (float64, error) {
	raw, err := field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.MalformedRowError{Line: line, Column: name, Value: raw, Reason: "not a finite number"}
	}
	return v, nil
}

func parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.MalformedRowError{Line: pe.Line, Reason: pe.Err.Error()}
	}
	return fmt.Errorf("read csv: %w", err)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
