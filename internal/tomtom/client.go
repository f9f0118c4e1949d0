package tomtom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

// Client fetches traffic incidents from the TomTom Traffic Incidents API v5.
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
		baseURL: "https://api.tomtom.com",
		logger:  logger,
	}
}

func NewClientWithBaseURL(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	c := NewClient(apiKey, timeout, logger)
	c.baseURL = baseURL
	return c
}

func (c *Client) Name() string { return "tomtom" }

const fieldsParam = "{incidents{type,geometry{type,coordinates},properties{id,iconCategory,magnitudeOfDelay,events{description,code},startTime,endTime,roadNumbers,delay}}}"

func (c *Client) FetchIncidents(ctx context.Context, region models.Region) ([]models.RawIncident, error) {
	params := url.Values{
		"key":      {c.apiKey},
		"bbox":     {bboxParam(region)},
		"fields":   {fieldsParam},
		"language": {"en-US"},
	}

	fullURL := c.baseURL + "/traffic/services/5/incidentDetails?" + params.Encode()

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
	if data.DetailedError.Message != "" {
		return nil, fmt.Errorf("tomtom api error: %s", data.DetailedError.Message)
	}

	incidents := make([]models.RawIncident, 0, len(data.Incidents))
	for _, in := range data.Incidents {
		p := in.Properties
		raw := models.RawIncident{
			ID:           p.ID,
			Type:         categoryName(p.IconCategory),
			Severity:     delayMagnitudeSeverity(p.MagnitudeOfDelay),
			Description:  joinEvents(p.Events),
			Location:     strings.Join(p.RoadNumbers, ", "),
			DelaySeconds: p.Delay,
			StartTime:    p.StartTime,
			EndTime:      p.EndTime,
		}
		if from, to, ok := endpoints(in.Geometry); ok {
			raw.From = &from
			raw.To = &to
		}
		incidents = append(incidents, raw)
	}

	return incidents, nil
}

// bboxParam renders the region as minLon,minLat,maxLon,maxLat. The v5
// endpoint has no circle form, so a center+radius region becomes the
// enclosing box.
func bboxParam(region models.Region) string {
	if region.BBox != nil {
		b := region.BBox
		return fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North)
	}
	lat, lon := 0.0, 0.0
	if region.Center != nil {
		lat, lon = region.Center.Lat, region.Center.Lon
	}
	dLat := float64(region.RadiusMeters) / 111320.0
	dLon := dLat / math.Cos(lat*math.Pi/180)
	return fmt.Sprintf("%g,%g,%g,%g", lon-dLon, lat-dLat, lon+dLon, lat+dLat)
}

// delayMagnitudeSeverity maps TomTom's 0-4 magnitudeOfDelay onto the
// severity vocabulary the normalizer understands.
func delayMagnitudeSeverity(magnitude int) string {
	switch magnitude {
	case 4:
		return "Critical"
	case 3:
		return "Major"
	case 2:
		return "Moderate"
	case 1:
		return "Minor"
	default:
		return ""
	}
}

func categoryName(iconCategory int) string {
	switch iconCategory {
	case 1:
		return "ACCIDENT"
	case 2:
		return "FOG"
	case 3:
		return "DANGEROUS_CONDITIONS"
	case 4:
		return "RAIN"
	case 5:
		return "ICE"
	case 6:
		return "JAM"
	case 7:
		return "LANE_CLOSED"
	case 8:
		return "ROAD_CLOSED"
	case 9:
		return "ROAD_WORKS"
	case 10:
		return "WIND"
	case 11:
		return "FLOODING"
	case 14:
		return "BROKEN_DOWN_VEHICLE"
	default:
		return ""
	}
}

func joinEvents(events []event) string {
	descs := make([]string, 0, len(events))
	for _, e := range events {
		if e.Description != "" {
			descs = append(descs, e.Description)
		}
	}
	return strings.Join(descs, "; ")
}

// endpoints returns the first and last coordinate of the incident geometry.
// TomTom coordinates are [lon, lat] pairs.
func endpoints(g geometry) (models.Point, models.Point, bool) {
	var coords [][]float64
	switch g.Type {
	case "Point":
		var c []float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil || len(c) < 2 {
			return models.Point{}, models.Point{}, false
		}
		coords = [][]float64{c}
	default:
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) == 0 {
			return models.Point{}, models.Point{}, false
		}
	}
	first, last := coords[0], coords[len(coords)-1]
	if len(first) < 2 || len(last) < 2 {
		return models.Point{}, models.Point{}, false
	}
	return models.Point{Lat: first[1], Lon: first[0]},
		models.Point{Lat: last[1], Lon: last[0]}, true
}

// TomTom API response types.

type response struct {
	Incidents     []incident    `json:"incidents"`
	DetailedError detailedError `json:"detailedError"`
}

type detailedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type incident struct {
	Geometry   geometry   `json:"geometry"`
	Properties properties `json:"properties"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type properties struct {
	ID               string   `json:"id"`
	IconCategory     int      `json:"iconCategory"`
	MagnitudeOfDelay int      `json:"magnitudeOfDelay"`
	Events           []event  `json:"events"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	RoadNumbers      []string `json:"roadNumbers"`
	Delay            int      `json:"delay"`
}

type event struct {
	Description string `json:"description"`
	Code        int    `json:"code"`
}
