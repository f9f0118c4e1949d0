package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/config"
	"github.com/WebbOfCode/TrafficWIz/internal/models"
	"github.com/WebbOfCode/TrafficWIz/internal/observability"
	"github.com/WebbOfCode/TrafficWIz/internal/repository"
)

// Collector schedules periodic ingestion passes, one poller per source.
type Collector struct {
	cfg       *config.Config
	ingestors []*Ingestor
	wg        sync.WaitGroup
}

func NewCollector(cfg *config.Config, repo repository.IncidentRepository, metrics *observability.Metrics, sources ...Source) *Collector {
	c := &Collector{cfg: cfg}
	for _, src := range sources {
		c.ingestors = append(c.ingestors, NewIngestor(src, repo, metrics, cfg.Center()))
	}
	return c
}

func (c *Collector) Start(ctx context.Context) {
	for _, ing := range c.ingestors {
		c.wg.Add(1)
		go c.runPoller(ctx, ing)
	}
}

func (c *Collector) runPoller(ctx context.Context, ing *Ingestor) {
	defer c.wg.Done()
	slog.Info("starting poller", "source", ing.src.Name(), "interval", c.cfg.Sources.PollInterval)

	ticker := time.NewTicker(c.cfg.Sources.PollInterval)
	defer ticker.Stop()

	// Initial pass
	c.poll(ctx, ing)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down", "source", ing.src.Name())
			return
		case <-ticker.C:
			c.poll(ctx, ing)
		}
	}
}

func (c *Collector) poll(ctx context.Context, ing *Ingestor) {
	summary := ing.Ingest(ctx, c.cfg.IngestRegion())
	if summary.Status == models.IngestStatusError {
		slog.Error("scheduled ingestion failed", "source", ing.src.Name(), "message", summary.Message)
		return
	}
	slog.Info("scheduled ingestion complete",
		"source", ing.src.Name(),
		"new", summary.New,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"fetched", summary.TotalFetched)
}

func (c *Collector) Stop() {
	c.wg.Wait()
	slog.Info("collector stopped")
}
