package dataset

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kavery/weatherpipe/internal/metrics"
	"github.com/kavery/weatherpipe/internal/models"
)

// Header is the required input schema, in order, case-sensitive.
var Header = []string{"date", "temperature", "rainfall", "humidity"}

const dateLayout = "2006-01-02"

// SchemaError reports a header that does not match the required schema.
type SchemaError struct {
	Path string
	Got  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: header %v does not match required schema %v", e.Path, e.Got, Header)
}

// Load reads the raw observation CSV at path. Rows whose date cannot be
// parsed are dropped with a warning, matching the upstream dataset's
// known dirtiness; empty or non-numeric cells become absent values.
func Load(path string) (models.Table, models.LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.LoadStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, models.LoadStats{}, fmt.Errorf("read header of %s: %w", path, err)
	}
	if !headerMatches(header) {
		return nil, models.LoadStats{}, &SchemaError{Path: path, Got: header}
	}

	var (
		table models.Table
		stats models.LoadStats
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read %s: %w", path, err)
		}
		stats.RowsRead++

		date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			log.Printf("load: dropping row %d of %s: bad date %q", stats.RowsRead, path, row[0])
			stats.RowsDropped++
			metrics.RowsDropped.Inc()
			continue
		}

		table = append(table, models.Record{
			Date:        date,
			Temperature: parseCell(row[1]),
			Rainfall:    parseCell(row[2]),
			Humidity:    parseCell(row[3]),
		})
		metrics.RowsLoaded.Inc()
	}

	return table, stats, nil
}

func headerMatches(got []string) bool {
	if len(got) != len(Header) {
		return false
	}
	for i, h := range Header {
		if strings.TrimSpace(got[i]) != h {
			return false
		}
	}
	return true
}

// parseCell turns a CSV cell into a nullable float. Empty and
// non-numeric cells are both treated as absent.
func parseCell(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
