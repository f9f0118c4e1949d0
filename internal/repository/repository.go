package repository

import (
	"context"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

type Filter struct {
	Limit    int
	Offset   int
	Since    *time.Time
	Severity *models.Severity
	Source   string
}

type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// BatchResult reports how a reconciled batch broke down.
type BatchResult struct {
	New     int
	Updated int
	Skipped int
}

type IncidentRepository interface {
	// ReconcileBatch applies a normalized batch in one transaction:
	// update when external_id exists, insert otherwise, and count an
	// insert that loses a uniqueness race as a skip.
	ReconcileBatch(ctx context.Context, incidents []models.Incident) (BatchResult, error)

	Insert(ctx context.Context, inc *models.Incident) error
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Incident, error)
	List(ctx context.Context, opts Filter) ([]models.Incident, error)

	CountBySeverity(ctx context.Context) ([]SeverityCount, error)
	TopLocations(ctx context.Context, limit int) ([]LocationCount, error)
	CountByDay(ctx context.Context, days int) ([]DayCount, error)

	Ping(ctx context.Context) error
}
