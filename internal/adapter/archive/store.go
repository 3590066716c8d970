// Package archive keeps a history of report runs in a SQL database.
// SQLite (github.com/mattn/go-sqlite3) and PostgreSQL (github.com/lib/pq) are supported.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/weather-report/internal/domain"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/insert-run.sql
var insertRunSQL string

//go:embed sql/insert-group.sql
var insertGroupSQL string

//go:embed sql/list-runs.sql
var listRunsSQL string

//go:embed sql/get-groups.sql
var getGroupsSQL string

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when no groups exist for a run and dimension.
var ErrRunNotFound = errors.New("archived run not found")

// RunSummary is one archived report run.
type RunSummary struct {
	RunID       string
	Title       string
	Source      string
	GeneratedAt time.Time
	Period      domain.Period
	Overall     domain.OverallStats
}

// Store persists reports. It implements pipeline.Sink.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the archive database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive open: %w", err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive ping: %w", err)
	}

	s := NewStore(db, driver, logger)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB, driver string, logger *slog.Logger) *Store {
	return &Store{db: db, driver: driver, logger: logger}
}

// EnsureSchema creates the archive tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("archive schema: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "archive" }

// Deliver saves the report and its groups in one transaction.
func (s *Store) Deliver(ctx context.Context, r *domain.Report) error {
	if err := r.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("archive encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.rebind(insertRunSQL),
		r.RunID, r.Title, r.Source,
		r.GeneratedAt.UTC().Format(timestampLayout),
		r.Period.From.Format(domain.DateLayout),
		r.Period.To.Format(domain.DateLayout),
		r.Overall.Count, r.Overall.Mean, r.Overall.Min, r.Overall.Max, r.Overall.StdDev,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("archive insert run %s: %w", r.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertGroupSQL))
	if err != nil {
		return fmt.Errorf("archive prepare groups: %w", err)
	}
	defer stmt.Close()

	for _, agg := range []*domain.AggregationResult{r.Yearly, r.Monthly} {
		for _, g := range agg.Groups {
			_, err := stmt.ExecContext(ctx,
				r.RunID, agg.Dimension, g.Key, g.Label, g.Count,
				g.TemperatureMean, g.TemperatureMin, g.TemperatureMax, g.RainfallSum, g.HumidityMean,
			)
			if err != nil {
				return fmt.Errorf("archive insert %s group %d: %w", agg.Dimension, g.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	s.logger.Info("report archived", "run_id", r.RunID, "driver", s.driver)
	return nil
}

// Runs returns up to limit archived runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(listRunsSQL), limit)
	if err != nil {
		return nil, fmt.Errorf("archive list runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close runs rows", "error", err)
		}
	}()

	var out []RunSummary
	for rows.Next() {
		var (
			rs                     RunSummary
			generated, from, until string
		)
		if err := rows.Scan(&rs.RunID, &rs.Title, &rs.Source, &generated, &from, &until,
			&rs.Overall.Count, &rs.Overall.Mean, &rs.Overall.Min, &rs.Overall.Max, &rs.Overall.StdDev); err != nil {
			return nil, fmt.Errorf("archive scan run: %w", err)
		}
		if rs.GeneratedAt, err = time.Parse(timestampLayout, generated); err != nil {
			return nil, fmt.Errorf("archive run %s generated_at: %w", rs.RunID, err)
		}
		if rs.Period.From, err = time.Parse(domain.DateLayout, from); err != nil {
			return nil, fmt.Errorf("archive run %s period_from: %w", rs.RunID, err)
		}
		if rs.Period.To, err = time.Parse(domain.DateLayout, until); err != nil {
			return nil, fmt.Errorf("archive run %s period_to: %w", rs.RunID, err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Groups returns the archived groups of one run and dimension, ordered by key.
func (s *Store) Groups(ctx context.Context, runID, dimension string) (domain.AggregationResult, error) {
	res := domain.AggregationResult{Dimension: dimension}

	rows, err := s.db.QueryContext(ctx, s.rebind(getGroupsSQL), runID, dimension)
	if err != nil {
		return res, fmt.Errorf("archive get groups: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close groups rows", "error", err)
		}
	}()

	for rows.Next() {
		var g domain.GroupStats
		if err := rows.Scan(&g.Key, &g.Label, &g.Count,
			&g.TemperatureMean, &g.TemperatureMin, &g.TemperatureMax, &g.RainfallSum, &g.HumidityMean); err != nil {
			return res, fmt.Errorf("archive scan group: %w", err)
		}
		res.Groups = append(res.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}
	if len(res.Groups) == 0 {
		return res, ErrRunNotFound
	}
	return res, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders as "$1", "$2", ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
