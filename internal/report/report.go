// Package report renders the pipeline's textual summary artifact.
package report

import (
	"embed"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/kavery/weatherpipe/internal/models"
	"github.com/kavery/weatherpipe/internal/stats"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.New("").Funcs(template.FuncMap{
	// All numeric output is fixed to two decimals for reproducibility.
	"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).ParseFS(templateFS, "templates/*.md.tmpl"))

// Data carries everything the report template needs.
type Data struct {
	GeneratedAt time.Time
	SourcePath  string
	RowCount    int

	Load models.LoadStats
	Fill models.FillReport

	// Overall per-column summaries over the cleaned daily values.
	DailyTemperature models.Summary
	DailyRainfall    models.Summary
	DailyHumidity    models.Summary

	Monthly []MonthlyRow
	Yearly  []YearlyRow

	SeasonalMeans []stats.SeasonalMean

	HottestSeason    models.Season
	WettestSeason    models.Season
	DriestAirSeason  models.Season // lowest mean humidity
	PeakRainLabel    string
	PeakRainTotal    float64
	HavePeakRainfall bool

	// Optional model-written conclusion; the static text is used when empty.
	Conclusion string
}

// MonthlyRow is one line of the monthly insights table.
type MonthlyRow struct {
	Label        string
	TempMean     float64
	TempStdDev   float64
	RainTotal    float64
	HumidityMean float64
	Count        int
}

// YearlyRow is one line of the yearly insights table.
type YearlyRow struct {
	Label        string
	TempMean     float64
	TempStdDev   float64
	RainTotal    float64
	HumidityMean float64
	Count        int
}

// Build assembles report data from a cleaned table and its fill report.
func Build(sourcePath string, table models.Table, load models.LoadStats, fill models.FillReport) Data {
	d := Data{
		GeneratedAt: time.Now(),
		SourcePath:  sourcePath,
		RowCount:    len(table),
		Load:        load,
		Fill:        fill,

		DailyTemperature: overall(table, stats.Temperature),
		DailyRainfall:    overall(table, stats.Rainfall),
		DailyHumidity:    overall(table, stats.Humidity),

		SeasonalMeans: stats.SeasonalMeans(table),
	}

	tempM := stats.Aggregate(table, stats.Monthly, stats.Temperature)
	rainM := stats.Aggregate(table, stats.Monthly, stats.Rainfall)
	humM := stats.Aggregate(table, stats.Monthly, stats.Humidity)
	for i := range tempM {
		d.Monthly = append(d.Monthly, MonthlyRow{
			Label:        tempM[i].Label(stats.Monthly),
			TempMean:     tempM[i].Summary.Mean,
			TempStdDev:   tempM[i].Summary.StdDev,
			RainTotal:    rainM[i].Summary.Sum,
			HumidityMean: humM[i].Summary.Mean,
			Count:        tempM[i].Summary.Count,
		})
	}

	tempY := stats.Aggregate(table, stats.Yearly, stats.Temperature)
	rainY := stats.Aggregate(table, stats.Yearly, stats.Rainfall)
	humY := stats.Aggregate(table, stats.Yearly, stats.Humidity)
	for i := range tempY {
		d.Yearly = append(d.Yearly, YearlyRow{
			Label:        tempY[i].Label(stats.Yearly),
			TempMean:     tempY[i].Summary.Mean,
			TempStdDev:   tempY[i].Summary.StdDev,
			RainTotal:    rainY[i].Summary.Sum,
			HumidityMean: humY[i].Summary.Mean,
			Count:        tempY[i].Summary.Count,
		})
	}

	d.HottestSeason, d.WettestSeason, d.DriestAirSeason = topSeasons(d.SeasonalMeans)

	if peak, ok := stats.MaxRainfallMonth(table); ok {
		d.PeakRainLabel = peak.Label(stats.Monthly)
		d.PeakRainTotal = peak.Summary.Sum
		d.HavePeakRainfall = true
	}

	return d
}

// overall summarizes one column across all rows, so duplicate-date rows
// keep their own weight.
func overall(table models.Table, col stats.Column) models.Summary {
	var raw []float64
	for _, rec := range table {
		switch col {
		case stats.Temperature:
			raw = append(raw, rec.Temperature.Float64)
		case stats.Rainfall:
			raw = append(raw, rec.Rainfall.Float64)
		case stats.Humidity:
			raw = append(raw, rec.Humidity.Float64)
		}
	}
	return stats.Summarize(raw)
}

func topSeasons(means []stats.SeasonalMean) (hottest, wettest, driestAir models.Season) {
	if len(means) == 0 {
		return
	}
	hot, wet, dry := means[0], means[0], means[0]
	for _, m := range means[1:] {
		if m.Temperature > hot.Temperature {
			hot = m
		}
		if m.Rainfall > wet.Rainfall {
			wet = m
		}
		if m.Humidity < dry.Humidity {
			dry = m
		}
	}
	return hot.Season, wet.Season, dry.Season
}

// Render writes the markdown report for d to w.
func Render(w io.Writer, d Data) error {
	return tmpl.ExecuteTemplate(w, "report.md.tmpl", d)
}

// WriteFile renders the report to path via a temporary file and rename,
// mirroring the cleaned-CSV atomicity guarantee.
func WriteFile(path string, d Data) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := Render(f, d); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("render report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s to %s: %w", tmp, path, err)
	}
	return nil
}
