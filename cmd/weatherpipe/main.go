package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/kavery/weatherpipe/internal/fetch"
	"github.com/kavery/weatherpipe/internal/narrative"
	"github.com/kavery/weatherpipe/internal/pipeline"
	"github.com/kavery/weatherpipe/internal/store"
)

type cli struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,help='Optional .env file to load flags from.'"`

	Run   runCmd   `cmd:"" default:"withargs" help:"Run the full load-clean-aggregate-export pipeline."`
	Fetch fetchCmd `cmd:"" help:"Download a raw observation CSV over HTTP or FTP."`
}

type runCmd struct {
	Input     string `help:"Path to the raw weather CSV." default:"data/raw_weather.csv" env:"WEATHERPIPE_INPUT"`
	Output    string `help:"Directory for data/, images/ and reports/ outputs." default:"." env:"WEATHERPIPE_OUTPUT"`
	ArchiveDB string `help:"Optional sqlite database to archive runs into." env:"WEATHERPIPE_ARCHIVE_DB"`
	Narrative bool   `help:"Phrase the report conclusion with OpenAI (needs OPENAI_API_KEY)." env:"WEATHERPIPE_NARRATIVE"`

	MetricsAddr string `help:"Optional address to serve Prometheus metrics on during the run." env:"WEATHERPIPE_METRICS_ADDR"`
}

func (c *runCmd) Run() error {
	cfg := pipeline.Config{
		InputPath: c.Input,
		OutputDir: c.Output,
	}

	if c.ArchiveDB != "" {
		db, err := sql.Open("sqlite", c.ArchiveDB)
		if err != nil {
			return fmt.Errorf("open archive database: %w", err)
		}
		defer db.Close()
		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA busy_timeout=5000")

		st := store.New(db)
		if err := st.Migrate(); err != nil {
			return fmt.Errorf("migrate archive database: %w", err)
		}
		cfg.Archive = st
	}

	if c.Narrative {
		gen, err := narrative.NewGenerator()
		if err != nil {
			log.Printf("narrative conclusion disabled: %v", err)
		} else {
			cfg.Narrator = gen
		}
	}

	if c.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(c.MetricsAddr, mux); err != nil {
				log.Printf("metrics listener: %v", err)
			}
		}()
	}

	result, err := pipeline.Run(context.Background(), cfg)
	if err != nil {
		return err
	}

	log.Printf("run complete: %d rows cleaned, %d cells filled", result.RowCount, result.Fill.Total())
	log.Printf("outputs: %s, %s, %s", result.CleanedPath, result.ReportPath, result.ImagesDir)
	return nil
}

type fetchCmd struct {
	Source string `arg:"" help:"Source URL (http, https or ftp)." env:"WEATHERPIPE_SOURCE"`
	Dest   string `help:"Destination path for the raw CSV." default:"data/raw_weather.csv" env:"WEATHERPIPE_INPUT"`
}

func (c *fetchCmd) Run() error {
	if err := fetch.Fetch(c.Source, c.Dest); err != nil {
		return err
	}
	log.Printf("fetched %s to %s", c.Source, c.Dest)
	return nil
}

func main() {
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("weatherpipe"),
		kong.Description("Cleans a daily weather observation CSV and derives bucketed statistics, charts and a report."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
