package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/trafficwiz.db", cfg.DB.Path)
	assert.Equal(t, "-87.0,36.0,-86.5,36.4", cfg.Region.BBox)
	assert.Equal(t, 36.1627, cfg.Region.CenterLat)
	assert.Equal(t, -86.7816, cfg.Region.CenterLon)
	assert.Equal(t, 25000, cfg.Region.RadiusMeters)
	assert.False(t, cfg.Sources.HereEnabled)
	assert.False(t, cfg.Sources.TomTomEnabled)
	assert.Equal(t, 10*time.Minute, cfg.Sources.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Sources.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Proxy.Timeout)
	assert.Equal(t, 50, cfg.Proxy.MaxResults)
	assert.Equal(t, 25000, cfg.Proxy.MaxRadiusMeters)
	assert.Equal(t, 4, cfg.Proxy.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("HERE_API_KEY", "abc123")
	t.Setenv("INGEST_POLL_INTERVAL", "5m")
	t.Setenv("PROXY_TIMEOUT", "2s")
	t.Setenv("PROXY_MAX_RESULTS", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DB.Path)
	// Supplying a key enables the source without an explicit flag.
	assert.True(t, cfg.Sources.HereEnabled)
	assert.Equal(t, "abc123", cfg.Sources.HereAPIKey)
	assert.Equal(t, 5*time.Minute, cfg.Sources.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Proxy.Timeout)
	assert.Equal(t, 10, cfg.Proxy.MaxResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_KeyedSourceCanBeDisabled(t *testing.T) {
	t.Setenv("HERE_API_KEY", "abc123")
	t.Setenv("HERE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Sources.HereEnabled)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad bbox", "REGION_BBOX", "1,2,3"},
		{"negative radius", "REGION_RADIUS_METERS", "-5"},
		{"enabled source without key", "TOMTOM_ENABLED", "true"},
		{"poll interval too short", "INGEST_POLL_INTERVAL", "10s"},
		{"zero proxy workers", "PROXY_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseBBox(t *testing.T) {
	bbox, err := ParseBBox("-87.0,36.0,-86.5,36.4")
	require.NoError(t, err)
	assert.Equal(t, models.BoundingBox{West: -87.0, South: 36.0, East: -86.5, North: 36.4}, bbox)

	// Spaces around values are tolerated.
	bbox, err = ParseBBox(" -87.0, 36.0, -86.5, 36.4 ")
	require.NoError(t, err)
	assert.Equal(t, -87.0, bbox.West)

	_, err = ParseBBox("1,2,3")
	assert.Error(t, err)

	_, err = ParseBBox("a,b,c,d")
	assert.Error(t, err)
}

func TestConfig_Regions(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	region := cfg.IngestRegion()
	require.NotNil(t, region.Center)
	assert.Equal(t, 36.1627, region.Center.Lat)
	assert.Equal(t, 25000, region.RadiusMeters)
	assert.Nil(t, region.BBox)

	bbox := cfg.DefaultBBox()
	assert.Equal(t, -87.0, bbox.West)
	assert.Equal(t, 36.4, bbox.North)

	center := cfg.Center()
	assert.Equal(t, -86.7816, center.Lon)
}
