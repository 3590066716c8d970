package archive

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-report/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testReport(runID string, generatedAt time.Time) *domain.Report {
	return &domain.Report{
		RunID:       runID,
		Title:       "Weather Data Analysis Report",
		Source:      "weather.csv",
		GeneratedAt: generatedAt,
		Period: domain.Period{
			From: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		Overall: &domain.OverallStats{Count: 365, Mean: 23.51, Min: 5.7, Max: 40.3, StdDev: 8.35},
		Yearly: &domain.AggregationResult{Dimension: "year", Groups: []domain.GroupStats{
			{Key: 2023, Label: "2023", Count: 365, TemperatureMean: 23.51, TemperatureMin: 5.7, TemperatureMax: 40.3, RainfallSum: 1654.8, HumidityMean: 54.91},
		}},
		Monthly: &domain.AggregationResult{Dimension: "month", Groups: []domain.GroupStats{
			{Key: 6, Label: "Jun", Count: 30, TemperatureMean: 33.68, TemperatureMin: 28.1, TemperatureMax: 40.3, RainfallSum: 342.6, HumidityMean: 70.2},
			{Key: 7, Label: "Jul", Count: 31, TemperatureMean: 35.18, TemperatureMin: 30.2, TemperatureMax: 39.9, RainfallSum: 623.2, HumidityMean: 78.4},
		}},
	}
}

func TestStore_DeliverAndRead(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	assert.Equal(t, "archive", s.Name())

	generated := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	r := testReport("run-1", generated)
	require.NoError(t, s.Deliver(ctx, r))

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "weather.csv", runs[0].Source)
	assert.True(t, generated.Equal(runs[0].GeneratedAt))
	assert.True(t, r.Period.From.Equal(runs[0].Period.From))
	assert.True(t, r.Period.To.Equal(runs[0].Period.To))
	assert.Equal(t, *r.Overall, runs[0].Overall)

	monthly, err := s.Groups(ctx, "run-1", "month")
	require.NoError(t, err)
	if diff := cmp.Diff(*r.Monthly, monthly); diff != "" {
		t.Fatalf("monthly groups mismatch (-want +got):\n%s", diff)
	}

	yearly, err := s.Groups(ctx, "run-1", "year")
	require.NoError(t, err)
	assert.InDelta(t, 1654.8, yearly.TotalRainfall(), 1e-9)
}

func TestStore_RunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.Deliver(ctx, testReport("older", base)))
	require.NoError(t, s.Deliver(ctx, testReport("newer", base.Add(1500*time.Millisecond))))
	require.NoError(t, s.Deliver(ctx, testReport("middle", base.Add(time.Second))))

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "newer", runs[0].RunID)
	assert.Equal(t, "middle", runs[1].RunID)
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	r := testReport("run-1", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, s.Deliver(ctx, r))
	require.Error(t, s.Deliver(ctx, r))

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	monthly, err := s.Groups(ctx, "run-1", "month")
	require.NoError(t, err)
	assert.Len(t, monthly.Groups, 2)
}

func TestStore_DeliverIncompleteReport(t *testing.T) {
	s := openTestStore(t)

	r := testReport("run-1", time.Now())
	r.Yearly = nil

	err := s.Deliver(context.Background(), r)
	require.ErrorIs(t, err, domain.ErrMissingSectionData)

	runs, err := s.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_GroupsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Groups(context.Background(), "missing", "month")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_EnsureSchemaIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}
