package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

const (
	// fallbackLocationLen bounds the location fragment used in
	// synthesized external IDs.
	fallbackLocationLen = 50
	// maxErrorMessageLen bounds provider error text surfaced to callers.
	maxErrorMessageLen = 100
)

// MapSeverity folds any provider severity value into the three-level
// enumeration. Total by construction: unrecognized and absent values
// resolve to Low.
func MapSeverity(raw string) models.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "major", "high":
		return models.SeverityHigh
	case "medium", "moderate":
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// externalID prefers the provider's native ID and falls back to a
// deterministic composite of type, truncated location, and start time.
// The fallback trades perfect uniqueness for idempotence against
// providers that omit IDs.
func externalID(source string, raw models.RawIncident) string {
	if raw.ID != "" {
		return raw.ID
	}
	typ := raw.Type
	if typ == "" {
		typ = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s_%s", source, typ, truncate(raw.Location, fallbackLocationLen), raw.StartTime)
}

// Normalize maps one provider-shaped incident into the canonical record,
// applying the fallback cascade for every optional field. now supplies
// the ingestion timestamp used when the provider omits a start time.
func Normalize(source string, raw models.RawIncident, fallback models.Point, now time.Time) models.Incident {
	lat, lon := fallback.Lat, fallback.Lon
	if raw.From != nil {
		lat, lon = raw.From.Lat, raw.From.Lon
	}

	incidentType := raw.Type
	if incidentType == "" {
		incidentType = "Traffic Incident"
	}

	description := raw.Description
	if description == "" {
		description = incidentType + " incident"
	}

	// Location cascade: provider street/segment name, then the part of
	// the description before the separator, then raw coordinates.
	location := raw.Location
	if len(location) < 3 {
		if strings.Contains(description, "At ") {
			if i := strings.Index(description, " - "); i >= 0 {
				location = description[:i]
			} else {
				location = description
			}
		} else {
			location = fmt.Sprintf("%.4f,%.4f", lat, lon)
		}
	}

	date := now
	if raw.StartTime != "" {
		if t, err := time.Parse(time.RFC3339, raw.StartTime); err == nil {
			date = t
		}
	}

	var endTime *time.Time
	if raw.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, raw.EndTime); err == nil {
			endTime = &t
		}
	}

	return models.Incident{
		ExternalID:   externalID(source, raw),
		Source:       source,
		Date:         date,
		EndTime:      endTime,
		Location:     location,
		Latitude:     lat,
		Longitude:    lon,
		Severity:     MapSeverity(raw.Severity),
		IncidentType: incidentType,
		Description:  description,
		DelaySeconds: raw.DelaySeconds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
