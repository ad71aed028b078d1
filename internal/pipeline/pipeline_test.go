package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/kavery/weatherpipe/internal/clean"
	"github.com/kavery/weatherpipe/internal/dataset"
	"github.com/kavery/weatherpipe/internal/store"
)

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw_weather.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write raw csv: %v", err)
	}
	return path
}

const scenarioCSV = "date,temperature,rainfall,humidity\n" +
	"2024-01-01,10,,50\n" +
	"2024-01-15,,5,\n" +
	"2024-07-01,35,200,80\n"

func TestRunEndToEnd(t *testing.T) {
	input := writeRaw(t, scenarioCSV)
	outDir := t.TempDir()

	res, err := Run(context.Background(), Config{InputPath: input, OutputDir: outDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", res.RowCount)
	}
	if res.Fill.Total() != 3 {
		t.Errorf("filled cells = %d, want 3", res.Fill.Total())
	}

	// Cleaned CSV reloads with the expected fill values.
	cleaned, _, err := dataset.Load(res.CleanedPath)
	if err != nil {
		t.Fatalf("reload cleaned csv: %v", err)
	}
	if got := cleaned[1].Temperature.Float64; got != 22.5 {
		t.Errorf("filled temperature = %v, want 22.5", got)
	}
	if got := cleaned[0].Rainfall.Float64; got != 0 {
		t.Errorf("filled rainfall = %v, want 0", got)
	}
	if got := cleaned[1].Humidity.Float64; got != 65 {
		t.Errorf("filled humidity = %v, want 65", got)
	}

	reportBytes, err := os.ReadFile(res.ReportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	reportText := string(reportBytes)
	if !strings.Contains(reportText, "## Grouping and Aggregation") {
		t.Error("report missing aggregation section")
	}
	if !strings.Contains(reportText, "**Monsoon**") {
		t.Error("report should name Monsoon as the wettest season")
	}

	for _, name := range []string{"daily_temperature.png", "monthly_rainfall.png", "humidity_vs_temperature.png", "combined_plots.png"} {
		if _, err := os.Stat(filepath.Join(res.ImagesDir, name)); err != nil {
			t.Errorf("missing chart artifact %s: %v", name, err)
		}
	}
}

func TestRunWithArchive(t *testing.T) {
	input := writeRaw(t, scenarioCSV)

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	res, err := Run(context.Background(), Config{
		InputPath: input,
		OutputDir: t.TempDir(),
		Archive:   st,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == 0 {
		t.Fatal("RunID = 0, want archived run id")
	}

	records, err := st.GetRecords(res.RunID)
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("archived %d records, want 3", len(records))
	}

	latest, err := st.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest == nil || latest.ID != res.RunID {
		t.Errorf("LatestRun = %+v, want run %d", latest, res.RunID)
	}
}

func TestRunSchemaError(t *testing.T) {
	input := writeRaw(t, "Date,Temperature,Rainfall,Humidity\n2024-01-01,10,1,50\n")

	_, err := Run(context.Background(), Config{InputPath: input, OutputDir: t.TempDir()})
	var se *dataset.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
}

func TestRunDataQualityError(t *testing.T) {
	input := writeRaw(t, "date,temperature,rainfall,humidity\n"+
		"2024-01-01,,1,50\n"+
		"2024-01-02,,2,60\n")
	outDir := t.TempDir()

	_, err := Run(context.Background(), Config{InputPath: input, OutputDir: outDir})
	var dqe *clean.DataQualityError
	if !errors.As(err, &dqe) {
		t.Fatalf("err = %v, want DataQualityError", err)
	}
	if dqe.Column != "temperature" {
		t.Errorf("Column = %q, want temperature", dqe.Column)
	}

	// The run aborted before export: no cleaned CSV may exist.
	if _, err := os.Stat(filepath.Join(outDir, dataSubdir, CleanedCSVName)); !os.IsNotExist(err) {
		t.Errorf("cleaned CSV written despite fatal cleaning error: %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	_, err := Run(context.Background(), Config{
		InputPath: filepath.Join(t.TempDir(), "nope.csv"),
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("Run with missing input succeeded")
	}
	if !strings.Contains(err.Error(), "load") {
		t.Errorf("err = %v, want failing stage named", err)
	}
}

func TestRunEmptyInput(t *testing.T) {
	input := writeRaw(t, "date,temperature,rainfall,humidity\n")
	_, err := Run(context.Background(), Config{InputPath: input, OutputDir: t.TempDir()})
	if err == nil {
		t.Fatal("Run with no data rows succeeded")
	}
}
