// seed-traffic fills the incidents table with randomized historical data
// so dashboards and the CSV exporter have something to work with before
// the first live ingestion pass.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	"github.com/WebbOfCode/TrafficWIz/internal/config"
	"github.com/WebbOfCode/TrafficWIz/internal/logging"
	"github.com/WebbOfCode/TrafficWIz/internal/models"
	"github.com/WebbOfCode/TrafficWIz/internal/repository"
)

var neighborhoods = []string{
	"Downtown", "The Gulch", "Midtown", "12 South", "East Nashville",
	"Germantown", "Sylvan Park", "Green Hills", "Hillsboro Village",
	"Berry Hill", "Donelson", "Hermitage", "Antioch", "Madison",
	"Bellevue", "West End", "Music Row", "SoBro", "Edgehill", "Inglewood",
}

var roads = []string{
	"I-40", "I-24", "I-65", "I-440", "Briley Pkwy", "Ellington Pkwy",
	"Charlotte Ave", "West End Ave", "Broadway", "Murfreesboro Pike",
	"Gallatin Pike", "Nolensville Pike", "Lebanon Pike", "Old Hickory Blvd",
	"Harding Pl", "Woodmont Blvd", "8th Ave S", "21st Ave S",
}

var segments = []string{
	"@ Exit 52", "@ Exit 209", "@ Wedgewood", "@ Charlotte Ave",
	"near Demonbreun", "near Broadway", "at Briley Pkwy",
	"near Old Hickory Blvd", "near 21st Ave S", "near Spence Ln",
}

var descriptions = []string{
	"Minor fender bender", "Multi-vehicle crash", "Stalled vehicle",
	"Road debris", "Overturned vehicle", "Construction lane closure",
	"Traffic signal issue", "Police activity", "Disabled tractor-trailer",
	"Shoulder blocked", "Ramp backup", "Oil spill cleanup",
}

var incidentTypes = []string{
	"ACCIDENT", "JAM", "CONSTRUCTION", "ROAD_CLOSED", "DANGEROUS_CONDITIONS",
}

var severities = []models.Severity{
	models.SeverityLow, models.SeverityMedium, models.SeverityHigh,
}

func main() {
	count := flag.Int("count", 200, "number of incidents to seed")
	daysBack := flag.Int("days", 60, "spread incidents over the past N days")
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

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	center := cfg.Center()

	seeded := 0
	for i := 0; i < *count; i++ {
		date := now.Add(-time.Duration(rng.Intn(*daysBack*24*60)) * time.Minute)
		inc := models.Incident{
			ExternalID: fmt.Sprintf("seed_%d_%d", now.Unix(), i),
			Source:     "seed",
			Date:       date,
			Location: fmt.Sprintf("%s %s, %s",
				roads[rng.Intn(len(roads))],
				segments[rng.Intn(len(segments))],
				neighborhoods[rng.Intn(len(neighborhoods))]),
			Latitude:     center.Lat + (rng.Float64()-0.5)*0.2,
			Longitude:    center.Lon + (rng.Float64()-0.5)*0.25,
			Severity:     severities[rng.Intn(len(severities))],
			IncidentType: incidentTypes[rng.Intn(len(incidentTypes))],
			Description:  descriptions[rng.Intn(len(descriptions))],
			DelaySeconds: rng.Intn(1800),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.Insert(ctx, &inc); err != nil {
			slog.Error("failed to insert seed incident", "error", err)
			continue
		}
		seeded++
	}

	slog.Info("seeding complete", "seeded", seeded, "requested", *count, "days_back", *daysBack)
}
