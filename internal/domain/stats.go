package domain

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// OverallStats summarizes temperature across an entire dataset.
type OverallStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// ComputeOverallStats returns mean, min, max and sample standard deviation of
// temperature.
func ComputeOverallStats(ds *Dataset) (OverallStats, error) {
	if ds.Len() == 0 {
		return OverallStats{}, &EmptyDatasetError{Operation: "overall stats"}
	}

	temps := ds.column(func(r Record) float64 { return r.Temperature })
	mean, std := stat.MeanStdDev(temps, nil)
	if len(temps) == 1 {
		std = 0
	}

	return OverallStats{
		Count:  len(temps),
		Mean:   mean,
		Min:    floats.Min(temps),
		Max:    floats.Max(temps),
		StdDev: std,
	}, nil
}

// Grouping derives an integer grouping key from a record and labels it for display.
type Grouping struct {
	Dimension string
	Key       func(Record) int
	Label     func(key int) string
}

var (
	// ByYear groups records by calendar year.
	ByYear = Grouping{
		Dimension: "year",
		Key:       func(r Record) int { return r.Date.Year() },
		Label:     func(k int) string { return fmt.Sprintf("%d", k) },
	}

	// ByMonth groups records by month of year (1-12) across all years.
	ByMonth = Grouping{
		Dimension: "month",
		Key:       func(r Record) int { return int(r.Date.Month()) },
		Label:     func(k int) string { return time.Month(k).String()[:3] },
	}

	// ByYearMonth groups records by calendar month, keyed as yyyymm.
	ByYearMonth = Grouping{
		Dimension: "year_month",
		Key:       func(r Record) int { return r.Date.Year()*100 + int(r.Date.Month()) },
		Label:     func(k int) string { return fmt.Sprintf("%04d-%02d", k/100, k%100) },
	}
)

// GroupStats summarizes the records sharing one grouping key.
type GroupStats struct {
	Key             int     `json:"key"`
	Label           string  `json:"label"`
	Count           int     `json:"count"`
	TemperatureMean float64 `json:"temperature_mean"`
	TemperatureMin  float64 `json:"temperature_min"`
	TemperatureMax  float64 `json:"temperature_max"`
	RainfallSum     float64 `json:"rainfall_sum"`
	HumidityMean    float64 `json:"humidity_mean"`
}

// AggregationResult is the ordered per-group summary for one grouping dimension.
type AggregationResult struct {
	Dimension string       `json:"dimension"`
	Groups    []GroupStats `json:"groups"`
}

// Group returns the stats for key, if present.
func (a *AggregationResult) Group(key int) (GroupStats, bool) {
	if a == nil {
		return GroupStats{}, false
	}
	i, ok := slices.BinarySearchFunc(a.Groups, key, func(g GroupStats, k int) int { return g.Key - k })
	if !ok {
		return GroupStats{}, false
	}
	return a.Groups[i], true
}

// TotalCount returns the number of records across all groups.
func (a *AggregationResult) TotalCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, g := range a.Groups {
		n += g.Count
	}
	return n
}

// TotalRainfall returns the rainfall summed across all groups.
func (a *AggregationResult) TotalRainfall() float64 {
	if a == nil {
		return 0
	}
	var sum float64
	for _, g := range a.Groups {
		sum += g.RainfallSum
	}
	return sum
}

// GroupBy partitions the dataset with g and summarizes each partition. Groups
// are returned in ascending key order.
func GroupBy(ds *Dataset, g Grouping) (AggregationResult, error) {
	if ds.Len() == 0 {
		return AggregationResult{}, &EmptyDatasetError{Operation: "group by " + g.Dimension}
	}

	partitions := make(map[int][]Record)
	for _, r := range ds.records {
		k := g.Key(r)
		partitions[k] = append(partitions[k], r)
	}

	keys := make([]int, 0, len(partitions))
	for k := range partitions {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	groups := make([]GroupStats, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, summarizeGroup(k, g.Label(k), partitions[k]))
	}

	return AggregationResult{Dimension: g.Dimension, Groups: groups}, nil
}

func summarizeGroup(key int, label string, records []Record) GroupStats {
	temps := make([]float64, len(records))
	rain := make([]float64, len(records))
	hum := make([]float64, len(records))
	for i, r := range records {
		temps[i] = r.Temperature
		rain[i] = r.Rainfall
		hum[i] = r.Humidity
	}

	return GroupStats{
		Key:             key,
		Label:           label,
		Count:           len(records),
		TemperatureMean: stat.Mean(temps, nil),
		TemperatureMin:  floats.Min(temps),
		TemperatureMax:  floats.Max(temps),
		RainfallSum:     floats.Sum(rain),
		HumidityMean:    stat.Mean(hum, nil),
	}
}
