package here

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

// Client fetches traffic incidents from the HERE Traffic API v8.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://data.traffic.hereapi.com",
		logger:  logger,
	}
}

// NewClientWithBaseURL is used by tests and non-default deployments.
func NewClientWithBaseURL(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	c := NewClient(apiKey, timeout, logger)
	c.baseURL = baseURL
	return c
}

func (c *Client) Name() string { return "here" }

// FetchIncidents requests current incidents for the region. A provider-level
// failure (non-2xx, malformed body, or an embedded error field) is returned
// as an error; callers decide how to degrade.
func (c *Client) FetchIncidents(ctx context.Context, region models.Region) ([]models.RawIncident, error) {
	params := url.Values{
		"apiKey":              {c.apiKey},
		"locationReferencing": {"shape"},
	}
	params.Set("in", inParam(region))

	fullURL := c.baseURL + "/v8/incidents?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d - body: %s", resp.StatusCode, body)
	}

	var data response
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("here api error: %s", data.Error)
	}

	incidents := make([]models.RawIncident, 0, len(data.Results))
	for _, r := range data.Results {
		d := r.IncidentDetails
		raw := models.RawIncident{
			ID:           d.ID,
			Type:         strings.ToUpper(d.Type),
			Severity:     d.Criticality,
			Description:  d.Description.Value,
			DelaySeconds: d.DelaySeconds,
			StartTime:    d.StartTime,
			EndTime:      d.EndTime,
		}
		if pts := shapePoints(r.Location.Shape); len(pts) > 0 {
			from := models.Point{Lat: pts[0].Lat, Lon: pts[0].Lng}
			to := models.Point{Lat: pts[len(pts)-1].Lat, Lon: pts[len(pts)-1].Lng}
			raw.From = &from
			raw.To = &to
		}
		incidents = append(incidents, raw)
	}

	return incidents, nil
}

func inParam(region models.Region) string {
	if region.BBox != nil {
		return "bbox:" + region.BBox.String()
	}
	lat, lon := 0.0, 0.0
	if region.Center != nil {
		lat, lon = region.Center.Lat, region.Center.Lon
	}
	return fmt.Sprintf("circle:%g,%g;r=%d", lat, lon, region.RadiusMeters)
}

func shapePoints(s shape) []point {
	var pts []point
	for _, l := range s.Links {
		pts = append(pts, l.Points...)
	}
	return pts
}

// HERE API response types. The error field doubles as the embedded
// provider error some failures arrive with despite a 200 status.

type response struct {
	Results []result `json:"results"`
	Error   string   `json:"error"`
}

type result struct {
	Location        location        `json:"location"`
	IncidentDetails incidentDetails `json:"incidentDetails"`
}

type location struct {
	Shape shape `json:"shape"`
}

type shape struct {
	Links []link `json:"links"`
}

type link struct {
	Points []point `json:"points"`
}

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type incidentDetails struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	Criticality  string      `json:"criticality"`
	Description  description `json:"description"`
	StartTime    string      `json:"startTime"`
	EndTime      string      `json:"endTime"`
	DelaySeconds int         `json:"delaySeconds"`
}

type description struct {
	Value string `json:"value"`
}
