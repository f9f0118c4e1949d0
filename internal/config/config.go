package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

type Config struct {
	Server  ServerConfig
	DB      DatabaseConfig
	Region  RegionConfig
	Sources SourcesConfig
	Proxy   ProxyConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

// RegionConfig pins the monitored area. The defaults cover the Nashville
// metro area, matching the seeded data.
type RegionConfig struct {
	BBox         string // west,south,east,north
	CenterLat    float64
	CenterLon    float64
	RadiusMeters int
}

type SourcesConfig struct {
	HereAPIKey     string
	HereBaseURL    string
	HereEnabled    bool
	TomTomAPIKey   string
	TomTomBaseURL  string
	TomTomEnabled  bool
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

type ProxyConfig struct {
	Timeout         time.Duration
	MaxResults      int
	MaxRadiusMeters int
	Workers         int
	QueueSize       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	hereKey := getEnv("HERE_API_KEY", "")
	tomtomKey := getEnv("TOMTOM_API_KEY", "")

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/trafficwiz.db"),
		},
		Region: RegionConfig{
			BBox:         getEnv("REGION_BBOX", "-87.0,36.0,-86.5,36.4"),
			CenterLat:    getEnvFloat("REGION_CENTER_LAT", 36.1627),
			CenterLon:    getEnvFloat("REGION_CENTER_LON", -86.7816),
			RadiusMeters: getEnvInt("REGION_RADIUS_METERS", 25000),
		},
		Sources: SourcesConfig{
			HereAPIKey:     hereKey,
			HereBaseURL:    getEnv("HERE_BASE_URL", "https://data.traffic.hereapi.com"),
			HereEnabled:    getEnvBool("HERE_ENABLED", hereKey != ""),
			TomTomAPIKey:   tomtomKey,
			TomTomBaseURL:  getEnv("TOMTOM_BASE_URL", "https://api.tomtom.com"),
			TomTomEnabled:  getEnvBool("TOMTOM_ENABLED", tomtomKey != ""),
			PollInterval:   getEnvDuration("INGEST_POLL_INTERVAL", 10*time.Minute),
			RequestTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Proxy: ProxyConfig{
			Timeout:         getEnvDuration("PROXY_TIMEOUT", 5*time.Second),
			MaxResults:      getEnvInt("PROXY_MAX_RESULTS", 50),
			MaxRadiusMeters: getEnvInt("PROXY_MAX_RADIUS_METERS", 25000),
			Workers:         getEnvInt("PROXY_WORKERS", 4),
			QueueSize:       getEnvInt("PROXY_QUEUE_SIZE", 16),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if _, err := ParseBBox(c.Region.BBox); err != nil {
		return fmt.Errorf("invalid REGION_BBOX: %w", err)
	}
	if c.Region.RadiusMeters < 1 {
		return fmt.Errorf("region radius must be positive: %d", c.Region.RadiusMeters)
	}

	if c.Sources.HereEnabled && c.Sources.HereAPIKey == "" {
		return fmt.Errorf("HERE_ENABLED is set but HERE_API_KEY is empty")
	}
	if c.Sources.TomTomEnabled && c.Sources.TomTomAPIKey == "" {
		return fmt.Errorf("TOMTOM_ENABLED is set but TOMTOM_API_KEY is empty")
	}
	if c.Sources.PollInterval < time.Minute {
		return fmt.Errorf("ingest poll interval must be at least 1 minute")
	}

	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("proxy timeout must be positive")
	}
	if c.Proxy.MaxResults < 1 {
		return fmt.Errorf("proxy max results must be positive")
	}
	if c.Proxy.Workers < 1 {
		return fmt.Errorf("proxy workers must be positive")
	}

	return nil
}

// IngestRegion is the fixed area every scheduled ingestion pass covers:
// a circle around the configured center.
func (c *Config) IngestRegion() models.Region {
	return models.Region{
		Center:       &models.Point{Lat: c.Region.CenterLat, Lon: c.Region.CenterLon},
		RadiusMeters: c.Region.RadiusMeters,
	}
}

// DefaultBBox is the fallback area for proxy requests that supply no region.
func (c *Config) DefaultBBox() models.BoundingBox {
	bbox, _ := ParseBBox(c.Region.BBox) // validated at load
	return bbox
}

// Center is the fallback coordinate for incidents that arrive without one.
func (c *Config) Center() models.Point {
	return models.Point{Lat: c.Region.CenterLat, Lon: c.Region.CenterLon}
}

// ParseBBox parses a "west,south,east,north" string.
func ParseBBox(s string) (models.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.BoundingBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.BoundingBox{}, fmt.Errorf("value %q: %w", p, err)
		}
		vals[i] = v
	}
	return models.BoundingBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
