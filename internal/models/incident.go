package models

import "time"

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Incident is the canonical record for a single traffic event. Provider
// specific shapes are normalized into this before anything is persisted.
type Incident struct {
	ID           int64      `json:"id"`
	ExternalID   string     `json:"external_id"` // provider ID, or synthesized fallback
	Source       string     `json:"source"`      // "here", "tomtom", "seed"
	Date         time.Time  `json:"date"`        // event start time
	EndTime      *time.Time `json:"end_time,omitempty"`
	Location     string     `json:"location"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Severity     Severity   `json:"severity"`
	IncidentType string     `json:"incident_type"`
	Description  string     `json:"description"`
	DelaySeconds int        `json:"delay_seconds"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RawIncident is a provider-shaped incident before normalization.
// Every field may be absent; timestamps stay as the provider's strings
// so normalization owns all parsing and fallbacks.
type RawIncident struct {
	ID           string
	Type         string
	Severity     string
	Description  string
	Location     string
	From         *Point
	To           *Point
	DelaySeconds int
	StartTime    string
	EndTime      string
}
