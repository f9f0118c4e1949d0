// export-training dumps stored incidents to a CSV of features for
// offline severity-model training.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/WebbOfCode/TrafficWIz/internal/config"
	"github.com/WebbOfCode/TrafficWIz/internal/logging"
	"github.com/WebbOfCode/TrafficWIz/internal/repository"
)

func main() {
	out := flag.String("out", "traffic_data.csv", "output CSV path")
	limit := flag.Int("limit", 0, "max rows to export (0 = all)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	incidents, err := db.List(context.Background(), repository.Filter{Limit: *limit})
	if err != nil {
		logging.Fatalf("Failed to list incidents: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		logging.Fatalf("Failed to create %s: %v", *out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"date", "hour", "day_of_week", "location", "severity", "incident_type", "latitude", "longitude", "delay_seconds"}
	if err := w.Write(header); err != nil {
		logging.Fatalf("Failed to write header: %v", err)
	}

	for _, inc := range incidents {
		row := []string{
			inc.Date.Format("2006-01-02 15:04:05"),
			strconv.Itoa(inc.Date.Hour()),
			inc.Date.Weekday().String(),
			inc.Location,
			string(inc.Severity),
			inc.IncidentType,
			strconv.FormatFloat(inc.Latitude, 'f', 6, 64),
			strconv.FormatFloat(inc.Longitude, 'f', 6, 64),
			strconv.Itoa(inc.DelaySeconds),
		}
		if err := w.Write(row); err != nil {
			logging.Fatalf("Failed to write row: %v", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		logging.Fatalf("Failed to flush CSV: %v", err)
	}

	slog.Info("export complete", "rows", len(incidents), "path", *out)
}
