package models

import (
	"database/sql"
	"time"
)

// Record is one daily observation row. Absent readings are carried as
// invalid NullFloat64s until the cleaner fills them.
type Record struct {
	Date        time.Time
	Temperature sql.NullFloat64
	Rainfall    sql.NullFloat64
	Humidity    sql.NullFloat64
}

// Table is an ordered sequence of records in input-file order. Only the
// cleaner produces a modified copy; everything downstream reads it as-is.
type Table []Record

// Summary holds the per-bucket statistics for one column. StdDev is the
// sample standard deviation (N-1 divisor), zero for single-record buckets.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Sum    float64
	Count  int
}

// Season labels a record by calendar month.
type Season string

const (
	Winter  Season = "Winter"
	Summer  Season = "Summer"
	Monsoon Season = "Monsoon"
	Autumn  Season = "Autumn"
)

// SeasonOrder is the canonical emission order for seasonal buckets.
var SeasonOrder = []Season{Winter, Summer, Monsoon, Autumn}

// FillReport records what the cleaner did to each column.
type FillReport struct {
	TemperatureFilled int
	RainfallFilled    int
	HumidityFilled    int

	TemperatureFill float64 // mean of present temperatures
	HumidityFill    float64 // median of present humidities
}

// Total returns the number of cells filled across all columns.
func (r FillReport) Total() int {
	return r.TemperatureFilled + r.RainfallFilled + r.HumidityFilled
}

// LoadStats describes what the loader read and skipped.
type LoadStats struct {
	RowsRead    int
	RowsDropped int // rows with unparseable dates
}
