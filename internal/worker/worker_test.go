package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFetchPool_StartStop(t *testing.T) {
	pool := NewFetchPool(2, 10)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	got, err := pool.Fetch(ctx, func(ctx context.Context) ([]models.RawIncident, error) {
		return []models.RawIncident{{ID: "a"}, {ID: "b"}}, nil
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 incidents, got %d", len(got))
	}

	cancel()
	pool.Stop()
}

func TestFetchPool_PropagatesError(t *testing.T) {
	pool := NewFetchPool(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	wantErr := errors.New("upstream exploded")
	_, err := pool.Fetch(ctx, func(ctx context.Context) ([]models.RawIncident, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected upstream error, got %v", err)
	}

	cancel()
	pool.Stop()
}

func TestFetchPool_FetchTimeout(t *testing.T) {
	pool := NewFetchPool(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	release := make(chan struct{})
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer fetchCancel()

	_, err := pool.Fetch(fetchCtx, func(ctx context.Context) ([]models.RawIncident, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(release)
	cancel()
	pool.Stop()
}

func TestFetchPool_ConcurrentFetches(t *testing.T) {
	pool := NewFetchPool(4, 16)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	var done atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Fetch(ctx, func(ctx context.Context) ([]models.RawIncident, error) {
				return []models.RawIncident{{ID: "x"}}, nil
			})
			if err == nil {
				done.Add(1)
			}
		}()
	}
	wg.Wait()

	if done.Load() != 50 {
		t.Errorf("expected 50 successful fetches, got %d", done.Load())
	}

	cancel()
	pool.Stop()
}

func TestFetchPool_SubmitAfterCancel(t *testing.T) {
	pool := NewFetchPool(1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	// Fill the single worker with a blocked job so the next submit waits.
	release := make(chan struct{})
	go pool.Fetch(ctx, func(ctx context.Context) ([]models.RawIncident, error) {
		<-release
		return nil, nil
	})
	time.Sleep(20 * time.Millisecond)

	fetchCtx, fetchCancel := context.WithCancel(ctx)
	fetchCancel()
	_, err := pool.Fetch(fetchCtx, func(ctx context.Context) ([]models.RawIncident, error) {
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context canceled on submit, got %v", err)
	}

	close(release)
	time.Sleep(20 * time.Millisecond)
	cancel()
	pool.Stop()
}
