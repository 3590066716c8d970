package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	generatedAt := time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(generatedAt))
	t.Cleanup(func() { SetClock(nil) })

	plots := []PlotRef{{Name: "Temperature trend", Path: "plots/temperature_trend.png"}}
	r, err := BuildReport(fixtureDataset(t), ReportOptions{
		Title:  "Weather",
		Source: "weather.csv",
		Plots:  plots,
	})
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	_, err = uuid.Parse(r.RunID)
	require.NoError(t, err)
	assert.Equal(t, "Weather", r.Title)
	assert.Equal(t, "weather.csv", r.Source)
	assert.Equal(t, generatedAt, r.GeneratedAt)
	assert.Equal(t, day(2022, time.December, 31), r.Period.From)
	assert.Equal(t, 4, r.Overall.Count)
	assert.Len(t, r.Yearly.Groups, 2)
	assert.Len(t, r.Monthly.Groups, 3)
	require.NotNil(t, r.YearMonth)
	assert.Equal(t, "year_month", r.YearMonth.Dimension)
	assert.Equal(t, []int{202212, 202301, 202302}, groupKeys(*r.YearMonth))
	require.NotNil(t, r.Extremes)
	require.NotNil(t, r.Trend)
	assert.Equal(t, "increased", r.Trend.Direction)
	assert.Equal(t, plots, r.Plots)
}

func TestBuildReport_Empty(t *testing.T) {
	_, err := BuildReport(&Dataset{}, ReportOptions{})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestReportValidate(t *testing.T) {
	overall := &OverallStats{Count: 1}
	groups := &AggregationResult{Groups: []GroupStats{{Key: 1, Count: 1}}}

	tests := []struct {
		name    string
		report  *Report
		section string
	}{
		{"nil report", nil, "report"},
		{"no overall", &Report{Yearly: groups, Monthly: groups}, "overall"},
		{"no yearly", &Report{Overall: overall, Monthly: groups}, "yearly"},
		{"empty yearly", &Report{Overall: overall, Yearly: &AggregationResult{}, Monthly: groups}, "yearly"},
		{"no monthly", &Report{Overall: overall, Yearly: groups}, "monthly"},
		{"complete", &Report{Overall: overall, Yearly: groups, Monthly: groups}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.report.Validate()
			if tt.section == "" {
				assert.NoError(t, err)
				return
			}
			var missing *MissingSectionDataError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.section, missing.Section)
			assert.ErrorIs(t, err, ErrMissingSectionData)
		})
	}
}
