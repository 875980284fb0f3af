// Package worker provides an asynchronous worker pool for publishing
// stream summaries through a telemetry.Publisher.
//
// The pool decouples publishing from the interactive render loop so that a
// slow or unreachable broker never stalls terminal output.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/telemetry"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Summary *telemetry.StreamSummary
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher is the telemetry backend summaries are published to.
	Publisher telemetry.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool publishes stream summaries asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("event_id", job.Summary.EventID),
			zap.String("model", job.Summary.Model),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("event_id", job.Summary.EventID),
			zap.String("model", job.Summary.Model),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the last stream has finished.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("telemetry worker stopped", zap.Uint("worker_id", id))
}

// processJob publishes a single summary.
// Errors are logged but not surfaced, a failed publish never affects the
// stream that produced the summary.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if err := p.config.Publisher.PublishSummary(ctx, job.Summary); err != nil {
		p.logger.Error("async summary publish failed",
			zap.String("event_id", job.Summary.EventID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("summary published",
		zap.String("event_id", job.Summary.EventID),
		zap.String("model", job.Summary.Model),
	)
}
