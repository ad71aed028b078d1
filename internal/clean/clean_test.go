package clean

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kavery/weatherpipe/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func val(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func absent() sql.NullFloat64 {
	return sql.NullFloat64{}
}

func TestCleanFillPolicies(t *testing.T) {
	table := models.Table{
		{Date: day(2024, time.January, 1), Temperature: val(10), Rainfall: absent(), Humidity: val(10)},
		{Date: day(2024, time.January, 2), Temperature: absent(), Rainfall: val(5), Humidity: val(20)},
		{Date: day(2024, time.January, 3), Temperature: val(30), Rainfall: val(2), Humidity: absent()},
		{Date: day(2024, time.January, 4), Temperature: val(20), Rainfall: val(0), Humidity: val(40)},
	}

	cleaned, report, err := Clean(table)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	// Temperature fill is the mean of present values (10, 30, 20).
	if got := cleaned[1].Temperature.Float64; got != 20 {
		t.Errorf("temperature fill = %v, want 20", got)
	}
	// Rainfall fill is constant zero.
	if got := cleaned[0].Rainfall.Float64; got != 0 {
		t.Errorf("rainfall fill = %v, want 0", got)
	}
	// Humidity fill is the median of present values (10, 20, 40).
	if got := cleaned[2].Humidity.Float64; got != 20 {
		t.Errorf("humidity fill = %v, want 20", got)
	}

	if report.TemperatureFilled != 1 || report.RainfallFilled != 1 || report.HumidityFilled != 1 {
		t.Errorf("fill counts = %+v, want one per column", report)
	}
	if report.TemperatureFill != 20 {
		t.Errorf("TemperatureFill = %v, want 20", report.TemperatureFill)
	}
	if report.HumidityFill != 20 {
		t.Errorf("HumidityFill = %v, want 20", report.HumidityFill)
	}
}

func TestCleanScenario(t *testing.T) {
	table := models.Table{
		{Date: day(2024, time.January, 1), Temperature: val(10), Rainfall: absent(), Humidity: val(50)},
		{Date: day(2024, time.January, 15), Temperature: absent(), Rainfall: val(5), Humidity: absent()},
		{Date: day(2024, time.July, 1), Temperature: val(35), Rainfall: val(200), Humidity: val(80)},
	}

	cleaned, _, err := Clean(table)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	wantTemp := []float64{10, 22.5, 35}
	wantRain := []float64{0, 5, 200}
	wantHum := []float64{50, 65, 80}
	for i := range cleaned {
		if cleaned[i].Temperature.Float64 != wantTemp[i] {
			t.Errorf("row %d temperature = %v, want %v", i, cleaned[i].Temperature.Float64, wantTemp[i])
		}
		if cleaned[i].Rainfall.Float64 != wantRain[i] {
			t.Errorf("row %d rainfall = %v, want %v", i, cleaned[i].Rainfall.Float64, wantRain[i])
		}
		if cleaned[i].Humidity.Float64 != wantHum[i] {
			t.Errorf("row %d humidity = %v, want %v", i, cleaned[i].Humidity.Float64, wantHum[i])
		}
	}
}

func TestCleanPreservesOrderAndInput(t *testing.T) {
	table := models.Table{
		{Date: day(2024, time.March, 3), Temperature: absent(), Rainfall: val(1), Humidity: val(50)},
		{Date: day(2024, time.January, 1), Temperature: val(12), Rainfall: val(2), Humidity: val(60)},
		{Date: day(2024, time.February, 2), Temperature: val(14), Rainfall: val(3), Humidity: val(70)},
	}

	cleaned, _, err := Clean(table)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(cleaned) != len(table) {
		t.Fatalf("len(cleaned) = %d, want %d", len(cleaned), len(table))
	}
	for i := range table {
		if !cleaned[i].Date.Equal(table[i].Date) {
			t.Errorf("row %d date changed: %v -> %v", i, table[i].Date, cleaned[i].Date)
		}
	}
	// The input table must not be touched.
	if table[0].Temperature.Valid {
		t.Error("input table was mutated by Clean")
	}
}

func TestCleanIdempotent(t *testing.T) {
	table := models.Table{
		{Date: day(2024, time.January, 1), Temperature: val(10), Rainfall: absent(), Humidity: val(50)},
		{Date: day(2024, time.June, 1), Temperature: absent(), Rainfall: val(8), Humidity: val(70)},
	}

	once, _, err := Clean(table)
	if err != nil {
		t.Fatalf("first Clean: %v", err)
	}
	twice, report, err := Clean(once)
	if err != nil {
		t.Fatalf("second Clean: %v", err)
	}
	if report.Total() != 0 {
		t.Errorf("second Clean filled %d cells, want 0", report.Total())
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("row %d changed on second clean: %+v -> %+v", i, once[i], twice[i])
		}
	}
}

func TestCleanAllAbsentColumns(t *testing.T) {
	t.Run("temperature fails", func(t *testing.T) {
		table := models.Table{
			{Date: day(2024, time.January, 1), Temperature: absent(), Rainfall: val(1), Humidity: val(50)},
			{Date: day(2024, time.January, 2), Temperature: absent(), Rainfall: val(2), Humidity: val(60)},
		}
		_, _, err := Clean(table)
		var dqe *DataQualityError
		if !errors.As(err, &dqe) {
			t.Fatalf("err = %v, want DataQualityError", err)
		}
		if dqe.Column != "temperature" {
			t.Errorf("Column = %q, want temperature", dqe.Column)
		}
	})

	t.Run("humidity fails", func(t *testing.T) {
		table := models.Table{
			{Date: day(2024, time.January, 1), Temperature: val(10), Rainfall: val(1), Humidity: absent()},
		}
		_, _, err := Clean(table)
		var dqe *DataQualityError
		if !errors.As(err, &dqe) {
			t.Fatalf("err = %v, want DataQualityError", err)
		}
		if dqe.Column != "humidity" {
			t.Errorf("Column = %q, want humidity", dqe.Column)
		}
	})

	t.Run("rainfall zero-fill never fails", func(t *testing.T) {
		table := models.Table{
			{Date: day(2024, time.January, 1), Temperature: val(10), Rainfall: absent(), Humidity: val(50)},
			{Date: day(2024, time.January, 2), Temperature: val(12), Rainfall: absent(), Humidity: val(60)},
		}
		cleaned, report, err := Clean(table)
		if err != nil {
			t.Fatalf("Clean: %v", err)
		}
		if report.RainfallFilled != 2 {
			t.Errorf("RainfallFilled = %d, want 2", report.RainfallFilled)
		}
		for i, rec := range cleaned {
			if !rec.Rainfall.Valid || rec.Rainfall.Float64 != 0 {
				t.Errorf("row %d rainfall = %+v, want 0", i, rec.Rainfall)
			}
		}
	})

	t.Run("fully clean columns need no statistic", func(t *testing.T) {
		// An all-absent temperature column only matters if a fill is
		// actually needed; this table has none absent.
		table := models.Table{
			{Date: day(2024, time.January, 1), Temperature: val(10), Rainfall: val(1), Humidity: val(50)},
		}
		if _, _, err := Clean(table); err != nil {
			t.Fatalf("Clean: %v", err)
		}
	})
}
