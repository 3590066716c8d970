package domain

import "math"

// trendThreshold is the smallest yearly mean change (°C) reported as a direction.
const trendThreshold = 0.05

// Extremes holds the most notable single days in a dataset.
type Extremes struct {
	Hottest Record `json:"hottest"`
	Coldest Record `json:"coldest"`
	Wettest Record `json:"wettest"`
}

// FindExtremes returns the hottest, coldest and wettest days. Ties resolve to
// the earliest date.
func FindExtremes(ds *Dataset) (Extremes, error) {
	if ds.Len() == 0 {
		return Extremes{}, &EmptyDatasetError{Operation: "extremes"}
	}

	first := ds.records[0]
	e := Extremes{Hottest: first, Coldest: first, Wettest: first}
	for _, r := range ds.records[1:] {
		if r.Temperature > e.Hottest.Temperature {
			e.Hottest = r
		}
		if r.Temperature < e.Coldest.Temperature {
			e.Coldest = r
		}
		if r.Rainfall > e.Wettest.Rainfall {
			e.Wettest = r
		}
	}
	return e, nil
}

// Trend compares the mean temperature of the first and last year.
type Trend struct {
	FromYear  int     `json:"from_year"`
	ToYear    int     `json:"to_year"`
	Change    float64 `json:"change"`
	Direction string  `json:"direction"` // "increased", "decreased", "unchanged"
}

// YearlyTrend derives a Trend from a yearly aggregation. It reports false when
// fewer than two years are present.
func YearlyTrend(yearly AggregationResult) (Trend, bool) {
	if len(yearly.Groups) < 2 {
		return Trend{}, false
	}

	first := yearly.Groups[0]
	last := yearly.Groups[len(yearly.Groups)-1]
	change := last.TemperatureMean - first.TemperatureMean

	direction := "unchanged"
	switch {
	case math.Abs(change) < trendThreshold:
	case change > 0:
		direction = "increased"
	default:
		direction = "decreased"
	}

	return Trend{
		FromYear:  first.Key,
		ToYear:    last.Key,
		Change:    change,
		Direction: direction,
	}, true
}
