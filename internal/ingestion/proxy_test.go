package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/WebbOfCode/TrafficWIz/internal/config"
	"github.com/WebbOfCode/TrafficWIz/internal/models"
	"github.com/WebbOfCode/TrafficWIz/internal/observability"
	"github.com/WebbOfCode/TrafficWIz/internal/worker"
)

// slowSource blocks until its context is done, standing in for an
// upstream that never answers.
type slowSource struct{}

func (s *slowSource) Name() string { return "slow" }

func (s *slowSource) FetchIncidents(ctx context.Context, region models.Region) ([]models.RawIncident, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// regionRecorder captures the region the proxy actually sent upstream.
type regionRecorder struct {
	fakeSource
	region models.Region
}

func (r *regionRecorder) FetchIncidents(ctx context.Context, region models.Region) ([]models.RawIncident, error) {
	r.region = region
	return r.fakeSource.FetchIncidents(ctx, region)
}

func proxyConfig() config.ProxyConfig {
	return config.ProxyConfig{
		Timeout:         5 * time.Second,
		MaxResults:      50,
		MaxRadiusMeters: 25000,
	}
}

func startPool(t *testing.T) *worker.FetchPool {
	t.Helper()
	pool := worker.NewFetchPool(2, 4)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})
	return pool
}

func TestProxy_Success(t *testing.T) {
	src := &fakeSource{
		name: "here",
		incidents: []models.RawIncident{
			{ID: "a", Type: "ACCIDENT", Severity: "major", Location: "I-40 East"},
		},
	}
	p := NewProxy(src, startPool(t), observability.NewMetricsForTesting(), testFallback, proxyConfig())

	incidents, msg := p.FetchIncidents(context.Background(), testRegion())

	if msg != "" {
		t.Errorf("unexpected message %q", msg)
	}
	if len(incidents) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(incidents))
	}
	if incidents[0].Severity != models.SeverityHigh {
		t.Errorf("severity = %s", incidents[0].Severity)
	}
}

func TestProxy_TimeoutDegradesToEmpty(t *testing.T) {
	cfg := proxyConfig()
	cfg.Timeout = 30 * time.Millisecond
	p := NewProxy(&slowSource{}, startPool(t), observability.NewMetricsForTesting(), testFallback, cfg)

	start := time.Now()
	incidents, msg := p.FetchIncidents(context.Background(), testRegion())
	elapsed := time.Since(start)

	if len(incidents) != 0 {
		t.Errorf("expected empty result, got %d", len(incidents))
	}
	if incidents == nil {
		t.Error("expected empty slice, not nil")
	}
	if msg != "upstream timeout - try again later" {
		t.Errorf("message = %q", msg)
	}
	if elapsed > time.Second {
		t.Errorf("timeout took %v, should be near the 30ms budget", elapsed)
	}
}

func TestProxy_UpstreamErrorDegradesToEmpty(t *testing.T) {
	src := &fakeSource{name: "here", err: errors.New("unexpected status code: 500")}
	p := NewProxy(src, startPool(t), observability.NewMetricsForTesting(), testFallback, proxyConfig())

	incidents, msg := p.FetchIncidents(context.Background(), testRegion())

	if len(incidents) != 0 {
		t.Errorf("expected empty result, got %d", len(incidents))
	}
	if !strings.HasPrefix(msg, "upstream error: ") || !strings.Contains(msg, "500") {
		t.Errorf("message = %q", msg)
	}
}

func TestProxy_ErrorMessageTruncated(t *testing.T) {
	src := &fakeSource{name: "here", err: errors.New(strings.Repeat("y", 300))}
	p := NewProxy(src, startPool(t), observability.NewMetricsForTesting(), testFallback, proxyConfig())

	_, msg := p.FetchIncidents(context.Background(), testRegion())

	if len(msg) != len("upstream error: ")+100 {
		t.Errorf("message length = %d", len(msg))
	}
}

func TestProxy_CapsResults(t *testing.T) {
	var raws []models.RawIncident
	for i := 0; i < 80; i++ {
		raws = append(raws, models.RawIncident{ID: fmt.Sprintf("inc-%d", i), Location: "I-40"})
	}
	src := &fakeSource{name: "here", incidents: raws}
	p := NewProxy(src, startPool(t), observability.NewMetricsForTesting(), testFallback, proxyConfig())

	incidents, msg := p.FetchIncidents(context.Background(), testRegion())

	if msg != "" {
		t.Errorf("unexpected message %q", msg)
	}
	if len(incidents) != 50 {
		t.Errorf("expected 50 incidents after cap, got %d", len(incidents))
	}
}

func TestProxy_ClampsRadius(t *testing.T) {
	src := &regionRecorder{fakeSource: fakeSource{name: "here"}}
	p := NewProxy(src, startPool(t), observability.NewMetricsForTesting(), testFallback, proxyConfig())

	region := models.Region{Center: &models.Point{Lat: 36.16, Lon: -86.78}, RadiusMeters: 100000}
	p.FetchIncidents(context.Background(), region)

	if src.region.RadiusMeters != 25000 {
		t.Errorf("radius sent upstream = %d, want 25000", src.region.RadiusMeters)
	}
}

func TestProxy_BBoxRegionPassedThrough(t *testing.T) {
	src := &regionRecorder{fakeSource: fakeSource{name: "here"}}
	p := NewProxy(src, startPool(t), observability.NewMetricsForTesting(), testFallback, proxyConfig())

	bbox := models.BoundingBox{West: -87.0, South: 36.0, East: -86.5, North: 36.4}
	p.FetchIncidents(context.Background(), models.Region{BBox: &bbox})

	if src.region.BBox == nil || *src.region.BBox != bbox {
		t.Errorf("bbox sent upstream = %+v", src.region.BBox)
	}
}
