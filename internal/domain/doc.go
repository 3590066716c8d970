// Package domain models daily weather observations and the statistics
// derived from them.
//
// # Records
//
// A [Record] is one calendar day: mean air temperature in degrees Celsius,
// rainfall in millimetres (never negative) and relative humidity as a
// percentage in [0, 100]. Dates carry no time of day and are normalized to
// UTC midnight so that grouping by year or month never depends on the
// host time zone.
//
// # Datasets
//
// A [Dataset] is built once by [NewDataset] and is read-only afterwards.
// Records are held in ascending date order and every date appears at most
// once. Duplicate dates are rejected with [DuplicateDateError] rather than
// merged, so a report can always be traced back to exactly one input row
// per day.
//
// # Statistics
//
// [ComputeOverallStats] summarizes temperature over the whole dataset. The
// standard deviation is the sample standard deviation (n-1 denominator),
// matching what spreadsheet and dataframe tools report by default; a
// single-record dataset has a standard deviation of 0.
//
// [GroupBy] partitions records with a [Grouping] and summarizes each
// partition:
//
//	temperature: mean, min, max
//	rainfall:    sum
//	humidity:    mean
//
// Groups are always emitted in ascending key order and only for keys that
// occur in the data. All values are float64; rounding belongs to the
// renderer.
//
// # Reports
//
// [BuildReport] assembles everything a renderer needs into a [Report]. A
// report without overall, yearly or monthly data fails [Report.Validate]
// with [MissingSectionDataError].
package domain
