package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/WebbOfCode/TrafficWIz/internal/models"
)

// ErrPoolStopped is returned when a fetch is submitted after shutdown.
var ErrPoolStopped = errors.New("fetch pool stopped")

// FetchFunc performs one upstream incidents request.
type FetchFunc func(ctx context.Context) ([]models.RawIncident, error)

type fetchResult struct {
	incidents []models.RawIncident
	err       error
}

type fetchJob struct {
	ctx context.Context
	fn  FetchFunc
	out chan fetchResult
}

// FetchPool bounds how many upstream fetches run at once, so a burst of
// proxy requests cannot stampede the provider. Each job carries the
// caller's context; when that context's deadline passes, the in-flight
// HTTP request is cancelled rather than left running unobserved.
type FetchPool struct {
	numWorkers int
	jobs       chan fetchJob
	wg         sync.WaitGroup
}

func NewFetchPool(numWorkers int, bufferSize int) *FetchPool {
	return &FetchPool{
		numWorkers: numWorkers,
		jobs:       make(chan fetchJob, bufferSize),
	}
}

func (p *FetchPool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *FetchPool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			incidents, err := job.fn(job.ctx)
			select {
			case job.out <- fetchResult{incidents: incidents, err: err}:
			case <-job.ctx.Done():
				// Caller gave up; discard the result.
			}
		}
	}
}

// Fetch runs fn on a pool worker and waits for the result or for ctx to
// expire, whichever comes first.
func (p *FetchPool) Fetch(ctx context.Context, fn FetchFunc) ([]models.RawIncident, error) {
	job := fetchJob{
		ctx: ctx,
		fn:  fn,
		out: make(chan fetchResult, 1),
	}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-job.out:
		return res.incidents, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *FetchPool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
