// Package pipeline sequences one batch run: load, clean, aggregate,
// export. Every stage error is fatal for the run; rerunning against a
// corrected input is the recovery path.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kavery/weatherpipe/internal/charts"
	"github.com/kavery/weatherpipe/internal/clean"
	"github.com/kavery/weatherpipe/internal/dataset"
	"github.com/kavery/weatherpipe/internal/metrics"
	"github.com/kavery/weatherpipe/internal/models"
	"github.com/kavery/weatherpipe/internal/narrative"
	"github.com/kavery/weatherpipe/internal/report"
	"github.com/kavery/weatherpipe/internal/stats"
	"github.com/kavery/weatherpipe/internal/store"
)

// Output artifact names under the run's output directory.
const (
	CleanedCSVName = "cleaned_weather.csv"
	ReportName     = "weather_report.md"

	dataSubdir    = "data"
	imagesSubdir  = "images"
	reportsSubdir = "reports"
)

// Config describes one run. Archive and Narrator are optional.
type Config struct {
	InputPath string
	OutputDir string

	Archive  *store.Store
	Narrator *narrative.Generator
}

// Result reports what a completed run produced.
type Result struct {
	CleanedPath string
	ReportPath  string
	ImagesDir   string

	RowCount int
	Load     models.LoadStats
	Fill     models.FillReport
	RunID    int64 // zero when archiving is disabled
}

// Run executes the pipeline for cfg.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()
	res, err := run(ctx, cfg, start)
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func run(ctx context.Context, cfg Config, start time.Time) (*Result, error) {
	table, loadStats, err := dataset.Load(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("load: %s contains no usable rows", cfg.InputPath)
	}
	log.Printf("pipeline: loaded %d rows from %s (%d dropped)", len(table), cfg.InputPath, loadStats.RowsDropped)

	cleaned, fill, err := clean.Clean(table)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	log.Printf("pipeline: filled %d absent cells (temperature=%d rainfall=%d humidity=%d)",
		fill.Total(), fill.TemperatureFilled, fill.RainfallFilled, fill.HumidityFilled)

	dataDir := filepath.Join(cfg.OutputDir, dataSubdir)
	imagesDir := filepath.Join(cfg.OutputDir, imagesSubdir)
	reportsDir := filepath.Join(cfg.OutputDir, reportsSubdir)
	for _, dir := range []string{dataDir, imagesDir, reportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	cleanedPath := filepath.Join(dataDir, CleanedCSVName)
	if err := dataset.Write(cleanedPath, cleaned); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	log.Printf("pipeline: wrote cleaned dataset to %s", cleanedPath)

	data := report.Build(cfg.InputPath, cleaned, loadStats, fill)
	data.GeneratedAt = start
	if cfg.Narrator != nil {
		text, err := cfg.Narrator.Conclusion(ctx, data.SeasonalMeans, data.PeakRainLabel, data.PeakRainTotal)
		if err != nil {
			// Narrative is decoration; the static conclusion stands in.
			log.Printf("pipeline: narrative conclusion unavailable: %v", err)
		} else {
			data.Conclusion = text
		}
	}

	reportPath := filepath.Join(reportsDir, ReportName)
	if err := report.WriteFile(reportPath, data); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	log.Printf("pipeline: wrote report to %s", reportPath)

	if err := charts.RenderAll(imagesDir, cleaned); err != nil {
		return nil, fmt.Errorf("charts: %w", err)
	}
	log.Printf("pipeline: wrote chart artifacts to %s", imagesDir)

	result := &Result{
		CleanedPath: cleanedPath,
		ReportPath:  reportPath,
		ImagesDir:   imagesDir,
		RowCount:    len(cleaned),
		Load:        loadStats,
		Fill:        fill,
	}

	if cfg.Archive != nil {
		runID, err := archive(cfg.Archive, cfg.InputPath, start, cleaned, loadStats, fill)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		result.RunID = runID
		log.Printf("pipeline: archived run %d", runID)
	}

	return result, nil
}

func archive(st *store.Store, sourcePath string, start time.Time, cleaned models.Table, loadStats models.LoadStats, fill models.FillReport) (int64, error) {
	runID, err := st.InsertRun(store.Run{
		StartedAt:  start,
		SourcePath: sourcePath,
		RowCount:   len(cleaned),
		Load:       loadStats,
		Fill:       fill,
	})
	if err != nil {
		return 0, err
	}
	if err := st.InsertRecords(runID, cleaned); err != nil {
		return 0, err
	}
	for _, col := range []stats.Column{stats.Temperature, stats.Rainfall, stats.Humidity} {
		if err := st.InsertSeasonalSummaries(runID, col, stats.Aggregate(cleaned, stats.Seasonal, col)); err != nil {
			return 0, err
		}
	}
	return runID, nil
}
