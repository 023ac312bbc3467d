package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrQueueFull  = errors.New("job queue full")
	ErrPoolClosed = errors.New("job queue closed")
)

// Queue accepts pipeline jobs. Submit never waits for the job to run.
type Queue interface {
	Submit(ctx context.Context, job *Job) error
}

// Pool runs jobs in process on a fixed number of workers
type Pool struct {
	jobs    chan *Job
	running atomic.Int32
	workers int
	o       *Orchestrator
	wg      sync.WaitGroup

	// guards closed and sends on jobs
	mu     sync.RWMutex
	closed bool
}

// NewPool returns a pool with room for size queued jobs. Call Start before
// submitting.
func NewPool(o *Orchestrator, workers, size int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	zap.L().Debug("Initializing ingestion queue", zap.Int("workers", workers), zap.Int("size", size))

	return &Pool{
		jobs:    make(chan *Job, size),
		workers: workers,
		o:       o,
	}
}

func (p *Pool) Start() {
	for range p.workers {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		// Pipelines outlive the request that queued them
		res := p.o.Run(context.Background(), job)
		p.running.Add(-1)

		zap.L().Debug("Ingestion job finished",
			zap.String("job_id", job.ID),
			zap.Uint("file_id", job.FileID),
			zap.String("state", res.State),
		)
	}
}

// Submit queues the job, or fails with ErrQueueFull without blocking.
// After Close it returns ErrPoolClosed.
func (p *Pool) Submit(_ context.Context, job *Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	// Counted before the send so a worker never decrements first
	n := p.running.Add(1)

	select {
	case p.jobs <- job:
		zap.L().Debug("New ingestion job enqueued", zap.Int32("enqueued", n), zap.Uint("file_id", job.FileID))
		return nil
	default:
		p.running.Add(-1)
		return ErrQueueFull
	}
}

// Pending returns how many submitted jobs haven't finished
func (p *Pool) Pending() int {
	return int(p.running.Load())
}

// Close stops accepting jobs and waits for the queued ones to finish. It's
// safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
