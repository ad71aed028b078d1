// Package clean fills absent values in a weather table using per-column
// policies: temperature takes the column mean, rainfall zero, humidity the
// column median. Fill statistics are computed over the original table
// before any replacement, so fills never skew each other.
package clean

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/kavery/weatherpipe/internal/metrics"
	"github.com/kavery/weatherpipe/internal/models"
)

// DataQualityError reports a column with no present values to derive a
// fill statistic from.
type DataQualityError struct {
	Column string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("column %s has no present values to compute a fill statistic", e.Column)
}

// Clean returns a copy of table with every absent value filled. The input
// is never modified; length and row order are preserved. Cleaning an
// already-clean table returns an identical copy.
func Clean(table models.Table) (models.Table, models.FillReport, error) {
	var report models.FillReport

	temps := present(table, func(r models.Record) sql.NullFloat64 { return r.Temperature })
	hums := present(table, func(r models.Record) sql.NullFloat64 { return r.Humidity })

	needTemp := hasAbsent(table, func(r models.Record) sql.NullFloat64 { return r.Temperature })
	needHum := hasAbsent(table, func(r models.Record) sql.NullFloat64 { return r.Humidity })

	if needTemp && len(temps) == 0 {
		return nil, report, &DataQualityError{Column: "temperature"}
	}
	if needHum && len(hums) == 0 {
		return nil, report, &DataQualityError{Column: "humidity"}
	}

	if len(temps) > 0 {
		report.TemperatureFill = mean(temps)
	}
	if len(hums) > 0 {
		report.HumidityFill = median(hums)
	}

	cleaned := make(models.Table, len(table))
	for i, rec := range table {
		if !rec.Temperature.Valid {
			rec.Temperature = sql.NullFloat64{Float64: report.TemperatureFill, Valid: true}
			report.TemperatureFilled++
			metrics.ValuesFilled.WithLabelValues("temperature").Inc()
		}
		if !rec.Rainfall.Valid {
			rec.Rainfall = sql.NullFloat64{Float64: 0, Valid: true}
			report.RainfallFilled++
			metrics.ValuesFilled.WithLabelValues("rainfall").Inc()
		}
		if !rec.Humidity.Valid {
			rec.Humidity = sql.NullFloat64{Float64: report.HumidityFill, Valid: true}
			report.HumidityFilled++
			metrics.ValuesFilled.WithLabelValues("humidity").Inc()
		}
		cleaned[i] = rec
	}

	return cleaned, report, nil
}

func present(table models.Table, get func(models.Record) sql.NullFloat64) []float64 {
	var vals []float64
	for _, rec := range table {
		if v := get(rec); v.Valid {
			vals = append(vals, v.Float64)
		}
	}
	return vals
}

func hasAbsent(table models.Table, get func(models.Record) sql.NullFloat64) bool {
	for _, rec := range table {
		if !get(rec).Valid {
			return true
		}
	}
	return false
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
