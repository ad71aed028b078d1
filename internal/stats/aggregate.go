// Package stats groups a cleaned weather table into time buckets and
// computes per-bucket summary statistics.
package stats

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kavery/weatherpipe/internal/models"
)

// Column selects which numeric column an aggregation reads.
type Column string

const (
	Temperature Column = "temperature"
	Rainfall    Column = "rainfall"
	Humidity    Column = "humidity"
)

// Interval selects the time-bucketing granularity.
type Interval string

const (
	Daily    Interval = "daily"
	Monthly  Interval = "monthly"
	Yearly   Interval = "yearly"
	Seasonal Interval = "seasonal"
)

// Bucket is one aggregation group. Exactly one of the key fields is
// meaningful depending on the interval; Label renders whichever applies.
type Bucket struct {
	Date    time.Time     // daily
	Year    int           // monthly, yearly
	Month   time.Month    // monthly
	Season  models.Season // seasonal
	Summary models.Summary
}

// Label renders the bucket key for reports and chart axes.
func (b Bucket) Label(iv Interval) string {
	switch iv {
	case Daily:
		return b.Date.Format("2006-01-02")
	case Monthly:
		return fmt.Sprintf("%04d-%02d", b.Year, int(b.Month))
	case Yearly:
		return fmt.Sprintf("%04d", b.Year)
	case Seasonal:
		return string(b.Season)
	}
	return ""
}

// Aggregate groups table by the given interval and summarizes the given
// column per bucket. The input table is not modified. Buckets are emitted
// in ascending key order; seasonal buckets follow the canonical
// Winter, Summer, Monsoon, Autumn order.
func Aggregate(table models.Table, iv Interval, col Column) []Bucket {
	switch iv {
	case Seasonal:
		return aggregateSeasonal(table, col)
	default:
		return aggregateChrono(table, iv, col)
	}
}

func aggregateChrono(table models.Table, iv Interval, col Column) []Bucket {
	groups := make(map[int64][]float64)
	for _, rec := range table {
		k := chronoKey(rec.Date, iv)
		groups[k] = append(groups[k], value(rec, col))
	}

	keys := make([]int64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	buckets := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		b := bucketForKey(k, iv)
		b.Summary = Summarize(groups[k])
		buckets = append(buckets, b)
	}
	return buckets
}

func aggregateSeasonal(table models.Table, col Column) []Bucket {
	groups := make(map[models.Season][]float64)
	for _, rec := range table {
		s := SeasonOf(rec.Date.Month())
		groups[s] = append(groups[s], value(rec, col))
	}

	var buckets []Bucket
	for _, s := range models.SeasonOrder {
		vals, ok := groups[s]
		if !ok {
			continue
		}
		buckets = append(buckets, Bucket{Season: s, Summary: Summarize(vals)})
	}
	return buckets
}

// chronoKey packs a date into a sortable integer key for the interval.
func chronoKey(d time.Time, iv Interval) int64 {
	switch iv {
	case Daily:
		return int64(d.Year())*10000 + int64(d.Month())*100 + int64(d.Day())
	case Monthly:
		return int64(d.Year())*100 + int64(d.Month())
	case Yearly:
		return int64(d.Year())
	}
	return 0
}

func bucketForKey(k int64, iv Interval) Bucket {
	switch iv {
	case Daily:
		return Bucket{Date: time.Date(int(k/10000), time.Month(k/100%100), int(k%100), 0, 0, 0, 0, time.UTC)}
	case Monthly:
		return Bucket{Year: int(k / 100), Month: time.Month(k % 100)}
	case Yearly:
		return Bucket{Year: int(k)}
	}
	return Bucket{}
}

func value(rec models.Record, col Column) float64 {
	var v sql.NullFloat64
	switch col {
	case Temperature:
		v = rec.Temperature
	case Rainfall:
		v = rec.Rainfall
	case Humidity:
		v = rec.Humidity
	}
	return v.Float64
}

// Summarize computes the summary statistics over one bucket's values.
func Summarize(vals []float64) models.Summary {
	s := models.Summary{Count: len(vals)}
	if s.Count == 0 {
		return s
	}

	s.Min = vals[0]
	s.Max = vals[0]
	for _, v := range vals {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = s.Sum / float64(s.Count)

	// Sample standard deviation; undefined for a single value, reported
	// as zero.
	if s.Count > 1 {
		var sq float64
		for _, v := range vals {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(s.Count-1))
	}
	return s
}

// MaxRainfallMonth returns the monthly bucket with the greatest summed
// rainfall. Ties resolve to the earliest month. The second return is
// false for an empty table.
func MaxRainfallMonth(table models.Table) (Bucket, bool) {
	monthly := Aggregate(table, Monthly, Rainfall)
	if len(monthly) == 0 {
		return Bucket{}, false
	}
	best := monthly[0]
	for _, b := range monthly[1:] {
		if b.Summary.Sum > best.Summary.Sum {
			best = b
		}
	}
	return best, true
}

// SeasonalMeans computes the mean of every column per season, in
// canonical season order. Used by the report's grouping section.
type SeasonalMean struct {
	Season      models.Season
	Temperature float64
	Rainfall    float64
	Humidity    float64
	Count       int
}

func SeasonalMeans(table models.Table) []SeasonalMean {
	temp := aggregateSeasonal(table, Temperature)
	rain := aggregateSeasonal(table, Rainfall)
	hum := aggregateSeasonal(table, Humidity)

	means := make([]SeasonalMean, len(temp))
	for i := range temp {
		means[i] = SeasonalMean{
			Season:      temp[i].Season,
			Temperature: temp[i].Summary.Mean,
			Rainfall:    rain[i].Summary.Mean,
			Humidity:    hum[i].Summary.Mean,
			Count:       temp[i].Summary.Count,
		}
	}
	return means
}
