// Package worker provides an asynchronous worker pool that records finished
// tool calls in the ledger and publishes them to the event stream.
//
// The pool decouples ledger writes and event publishing from the request
// path so that a slow database or broker never delays a tool response.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/toolbox/pkg/eventstream"
	"github.com/papercomputeco/toolbox/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256

	// defaultJobTimeout bounds the ledger write and publish for one job.
	defaultJobTimeout = 10 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Surface names the entry point the call came through.
	Surface string

	Record *storage.CallRecord
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the ledger backend for persisting call records.
	Driver storage.Driver

	// Publisher is the optional event stream publisher.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds each job. Defaults to 10s.
	JobTimeout time.Duration

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool processes ledger jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires a storage driver")
	}
	if c.Logger == nil {
		return nil, errors.New("worker pool requires a logger")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
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
	if job.Record == nil {
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"tool", job.Record.Tool,
			"call_id", job.Record.ID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"tool", job.Record.Tool,
			"call_id", job.Record.ID,
		)
		return false
	}
}

// Record enqueues rec as a job for surface.
func (p *Pool) Record(surface string, rec *storage.CallRecord) bool {
	return p.Enqueue(Job{Surface: surface, Record: rec})
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ledger worker stopped", "worker_id", id)
}

// processJob stores the call record and then publishes its event. A
// publish is skipped when the ledger write fails.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	rec := job.Record
	if err := p.config.Driver.Put(ctx, rec); err != nil {
		p.logger.Error("async ledger write failed",
			"tool", rec.Tool,
			"call_id", rec.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("call recorded",
		"tool", rec.Tool,
		"call_id", rec.ID,
		"success", rec.Success,
		"duration_ms", rec.DurationMs,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewCallCompletedEvent(job.Surface, rec, time.Now())
	if err := p.config.Publisher.PublishCall(ctx, event); err != nil {
		p.logger.Warn("failed to publish call event",
			"call_id", rec.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("published call event",
		"call_id", rec.ID,
		"event_id", event.EventID,
	)
}
