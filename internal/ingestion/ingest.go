package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
	"github.com/WebbOfCode/TrafficWIz/internal/observability"
	"github.com/WebbOfCode/TrafficWIz/internal/repository"
)

// Source is an upstream traffic incidents provider.
type Source interface {
	Name() string
	FetchIncidents(ctx context.Context, region models.Region) ([]models.RawIncident, error)
}

// Ingestor runs fetch-normalize-reconcile passes for one source.
type Ingestor struct {
	src      Source
	repo     repository.IncidentRepository
	metrics  *observability.Metrics
	fallback models.Point
	clock    clockwork.Clock
}

func NewIngestor(src Source, repo repository.IncidentRepository, metrics *observability.Metrics, fallback models.Point) *Ingestor {
	return &Ingestor{
		src:      src,
		repo:     repo,
		metrics:  metrics,
		fallback: fallback,
		clock:    clockwork.NewRealClock(),
	}
}

// WithClock swaps the time source, so tests get deterministic timestamps.
func (ing *Ingestor) WithClock(c clockwork.Clock) *Ingestor {
	ing.clock = c
	return ing
}

// Ingest performs one reconciliation pass over the region's current
// incidents. Provider failures and mid-batch errors come back as an
// error-status summary with a bounded message; they are never raised.
func (ing *Ingestor) Ingest(ctx context.Context, region models.Region) models.IngestSummary {
	source := ing.src.Name()
	start := ing.clock.Now()
	defer func() {
		ing.metrics.IngestDuration.Observe(ing.clock.Since(start).Seconds())
	}()

	raws, err := ing.src.FetchIncidents(ctx, region)
	if err != nil {
		slog.Error("upstream fetch failed", "source", source, "error", err)
		ing.metrics.IngestRuns.WithLabelValues(source, "error").Inc()
		return errorSummary(err)
	}

	ing.metrics.IncidentsFetched.WithLabelValues(source).Add(float64(len(raws)))

	if len(raws) == 0 {
		ing.metrics.IngestRuns.WithLabelValues(source, "success").Inc()
		return models.IngestSummary{
			Status:  models.IngestStatusSuccess,
			Message: "no incidents found in region",
		}
	}

	now := ing.clock.Now()
	records := make([]models.Incident, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(source, raw, ing.fallback, now))
	}

	res, err := ing.repo.ReconcileBatch(ctx, records)
	if err != nil {
		slog.Error("batch reconcile failed", "source", source, "error", err)
		ing.metrics.IngestRuns.WithLabelValues(source, "error").Inc()
		summary := errorSummary(err)
		summary.TotalFetched = len(raws)
		return summary
	}

	ing.metrics.IncidentsNew.Add(float64(res.New))
	ing.metrics.IncidentsUpdated.Add(float64(res.Updated))
	ing.metrics.IncidentsSkipped.Add(float64(res.Skipped))
	ing.metrics.IngestRuns.WithLabelValues(source, "success").Inc()

	return models.IngestSummary{
		Status:       models.IngestStatusSuccess,
		Message:      fmt.Sprintf("ingestion complete: %d new, %d updated, %d skipped", res.New, res.Updated, res.Skipped),
		New:          res.New,
		Updated:      res.Updated,
		Skipped:      res.Skipped,
		TotalFetched: len(raws),
	}
}

func errorSummary(err error) models.IngestSummary {
	return models.IngestSummary{
		Status:  models.IngestStatusError,
		Message: truncate(err.Error(), maxErrorMessageLen),
	}
}
