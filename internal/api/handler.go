package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WebbOfCode/TrafficWIz/internal/config"
	"github.com/WebbOfCode/TrafficWIz/internal/ingestion"
	"github.com/WebbOfCode/TrafficWIz/internal/models"
	"github.com/WebbOfCode/TrafficWIz/internal/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	topLocationCount = 5
	byDayWindow      = 30
	// defaultLiveRadiusMeters applies when a live request gives a center
	// but no radius; the proxy clamps whatever arrives.
	defaultLiveRadiusMeters = 10000
)

type Handler struct {
	repo     repository.IncidentRepository
	ingestor *ingestion.Ingestor // nil when no source is configured
	proxy    *ingestion.Proxy    // nil when no source is configured
	cfg      *config.Config
}

func NewHandler(repo repository.IncidentRepository, ingestor *ingestion.Ingestor, proxy *ingestion.Proxy, cfg *config.Config) *Handler {
	return &Handler{
		repo:     repo,
		ingestor: ingestor,
		proxy:    proxy,
		cfg:      cfg,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/traffic", h.listTraffic)
	api.GET("/traffic/geojson", h.trafficGeoJSON)
	api.GET("/traffic/live", h.liveIncidents)
	api.GET("/traffic/:id", h.getIncident)
	api.GET("/incidents/by-severity", h.bySeverity)
	api.GET("/incidents/by-location", h.byLocation)
	api.GET("/incidents/by-day", h.byDay)
	// GET kept alongside POST so a browser can trigger a refresh, as the
	// frontend has always done.
	api.GET("/refresh-incidents", h.refreshIncidents)
	api.POST("/refresh-incidents", h.refreshIncidents)
}

func (h *Handler) health(c *gin.Context) {
	status := gin.H{"service": "ok", "db": "ok"}
	if err := h.repo.Ping(c.Request.Context()); err != nil {
		status["db"] = "error: " + err.Error()
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) listTraffic(c *gin.Context) {
	filter := repository.Filter{
		Limit: defaultListLimit,
	}

	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 {
			filter.Limit = min(lim, maxListLimit)
		}
	}
	if s := c.Query("severity"); s != "" {
		sev := ingestion.MapSeverity(s)
		filter.Severity = &sev
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}
	if src := c.Query("source"); src != "" {
		filter.Source = src
	}

	incidents, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}
	if incidents == nil {
		incidents = []models.Incident{}
	}
	c.JSON(http.StatusOK, incidents)
}

func (h *Handler) getIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	inc, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incident"})
		return
	}
	if inc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"incident": inc})
}

func (h *Handler) trafficGeoJSON(c *gin.Context) {
	incidents, err := h.repo.List(c.Request.Context(), repository.Filter{Limit: maxListLimit})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}

	fc := toGeoJSON(incidents)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) bySeverity(c *gin.Context) {
	counts, err := h.repo.CountBySeverity(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate incidents"})
		return
	}
	if counts == nil {
		counts = []repository.SeverityCount{}
	}
	c.JSON(http.StatusOK, gin.H{"by_severity": counts})
}

func (h *Handler) byLocation(c *gin.Context) {
	counts, err := h.repo.TopLocations(c.Request.Context(), topLocationCount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate incidents"})
		return
	}
	if counts == nil {
		counts = []repository.LocationCount{}
	}
	c.JSON(http.StatusOK, gin.H{"by_location": counts})
}

func (h *Handler) byDay(c *gin.Context) {
	counts, err := h.repo.CountByDay(c.Request.Context(), byDayWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate incidents"})
		return
	}
	if counts == nil {
		counts = []repository.DayCount{}
	}
	c.JSON(http.StatusOK, gin.H{"by_day": counts})
}

// refreshIncidents triggers one ingestion pass against the configured
// region. The summary maps status=error to 500 so schedulers notice.
func (h *Handler) refreshIncidents(c *gin.Context) {
	if h.ingestor == nil {
		c.JSON(http.StatusInternalServerError, models.IngestSummary{
			Status:  models.IngestStatusError,
			Message: "no incident sources configured",
		})
		return
	}

	summary := h.ingestor.Ingest(c.Request.Context(), h.cfg.IngestRegion())
	if summary.Status == models.IngestStatusError {
		c.JSON(http.StatusInternalServerError, summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// liveIncidents is the read-through proxy. Upstream trouble degrades to
// an empty list with a message and still answers 200; the frontend is
// expected to tolerate empty data, not error pages.
func (h *Handler) liveIncidents(c *gin.Context) {
	if h.proxy == nil {
		c.JSON(http.StatusOK, gin.H{
			"incidents": []models.Incident{},
			"count":     0,
			"message":   "incident sources not configured",
		})
		return
	}

	region, err := h.liveRegion(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incidents, message := h.proxy.FetchIncidents(c.Request.Context(), region)
	resp := gin.H{
		"incidents": incidents,
		"count":     len(incidents),
	}
	if message != "" {
		resp["message"] = message
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) liveRegion(c *gin.Context) (models.Region, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			return models.Region{}, errInvalidCoords
		}
		radius := defaultLiveRadiusMeters
		if r := c.Query("radius"); r != "" {
			if v, err := strconv.Atoi(r); err == nil && v > 0 {
				radius = v
			}
		}
		return models.Region{
			Center:       &models.Point{Lat: lat, Lon: lon},
			RadiusMeters: radius,
		}, nil
	}

	if b := c.Query("bbox"); b != "" {
		bbox, err := config.ParseBBox(b)
		if err != nil {
			return models.Region{}, errInvalidBBox
		}
		return models.Region{BBox: &bbox}, nil
	}

	bbox := h.cfg.DefaultBBox()
	return models.Region{BBox: &bbox}, nil
}
