package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/WebbOfCode/TrafficWIz/internal/config"
	"github.com/WebbOfCode/TrafficWIz/internal/models"
	"github.com/WebbOfCode/TrafficWIz/internal/observability"
	"github.com/WebbOfCode/TrafficWIz/internal/worker"
)

// Proxy serves read-through incident requests with a wall-clock bound on
// the caller's wait. Upstream trouble degrades to an empty list plus a
// message; it never becomes a hard failure.
type Proxy struct {
	src             Source
	pool            *worker.FetchPool
	metrics         *observability.Metrics
	fallback        models.Point
	clock           clockwork.Clock
	timeout         time.Duration
	maxResults      int
	maxRadiusMeters int
}

func NewProxy(src Source, pool *worker.FetchPool, metrics *observability.Metrics, fallback models.Point, cfg config.ProxyConfig) *Proxy {
	return &Proxy{
		src:             src,
		pool:            pool,
		metrics:         metrics,
		fallback:        fallback,
		clock:           clockwork.NewRealClock(),
		timeout:         cfg.Timeout,
		maxResults:      cfg.MaxResults,
		maxRadiusMeters: cfg.MaxRadiusMeters,
	}
}

func (p *Proxy) WithClock(c clockwork.Clock) *Proxy {
	p.clock = c
	return p
}

// FetchIncidents fetches, normalizes, and caps current incidents for the
// region. The second return value is a message explaining a degraded
// (empty) response; it is empty on success.
func (p *Proxy) FetchIncidents(ctx context.Context, region models.Region) ([]models.Incident, string) {
	region = p.clampRadius(region)

	start := time.Now()
	defer func() {
		p.metrics.ProxyDuration.Observe(time.Since(start).Seconds())
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raws, err := p.pool.Fetch(fetchCtx, func(c context.Context) ([]models.RawIncident, error) {
		return p.src.FetchIncidents(c, region)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("proxy fetch timed out", "source", p.src.Name(), "timeout", p.timeout)
		p.metrics.ProxyRequests.WithLabelValues("timeout").Inc()
		return []models.Incident{}, "upstream timeout - try again later"
	}
	if err != nil {
		slog.Warn("proxy fetch failed", "source", p.src.Name(), "error", err)
		p.metrics.ProxyRequests.WithLabelValues("upstream_error").Inc()
		return []models.Incident{}, "upstream error: " + truncate(err.Error(), maxErrorMessageLen)
	}

	if len(raws) > p.maxResults {
		raws = raws[:p.maxResults]
	}

	now := p.clock.Now()
	incidents := make([]models.Incident, 0, len(raws))
	for _, raw := range raws {
		incidents = append(incidents, Normalize(p.src.Name(), raw, p.fallback, now))
	}

	p.metrics.ProxyRequests.WithLabelValues("success").Inc()
	return incidents, ""
}

func (p *Proxy) clampRadius(region models.Region) models.Region {
	if region.RadiusMeters > p.maxRadiusMeters {
		region.RadiusMeters = p.maxRadiusMeters
	}
	return region
}
