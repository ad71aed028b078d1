package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/kavery/weatherpipe/internal/models"
)

// Write serializes a cleaned table back to CSV in the input schema, dates
// as ISO-8601 and values at two decimal places. The file is written to a
// temporary path and renamed so a failed run never leaves a truncated
// file that looks complete.
func Write(path string, table models.Table) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write header to %s: %w", tmp, err)
	}

	for _, rec := range table {
		row := []string{
			rec.Date.Format(dateLayout),
			formatCell(rec.Temperature.Float64),
			formatCell(rec.Rainfall.Float64),
			formatCell(rec.Humidity.Float64),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("write row to %s: %w", tmp, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", tmp, err)
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

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
