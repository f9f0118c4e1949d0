package api

import (
	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(incidents []models.Incident) FeatureCollection {
	features := make([]Feature, 0, len(incidents))

	for _, inc := range incidents {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{inc.Longitude, inc.Latitude},
			},
			Properties: map[string]any{
				"id":            inc.ID,
				"external_id":   inc.ExternalID,
				"source":        inc.Source,
				"severity":      inc.Severity,
				"incident_type": inc.IncidentType,
				"description":   inc.Description,
				"location":      inc.Location,
				"delay_seconds": inc.DelaySeconds,
				"date":          inc.Date,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
