// Package worker runs fire-and-forget jobs on a fixed set of goroutines
// reading from a bounded queue.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned by Submit when the queue has no free slot.
	ErrQueueFull = errors.New("worker queue is full")
	// ErrStopped is returned by Submit after Shutdown has begun.
	ErrStopped = errors.New("worker pool is stopped")
)

// Job is one unit of background work. The context is detached from the
// request that submitted it and is cancelled only when Shutdown times out.
type Job func(ctx context.Context)

type task struct {
	name string
	job  Job
}

type Pool struct {
	queue  chan task
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// New starts workers goroutines sharing a queue of the given size.
func New(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:  make(chan task, queueSize),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	logger.Info("worker pool started", "workers", workers, "queue_size", queueSize)
	return p
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(name string, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}
	select {
	case p.queue <- task{name: name, job: job}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) run(workerID int) {
	defer p.wg.Done()
	for t := range p.queue {
		p.execute(workerID, t)
	}
}

func (p *Pool) execute(workerID int, t task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked",
				"job", t.name,
				"worker", workerID,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	t.job(p.ctx)
	p.logger.Debug("job finished", "job", t.name, "worker", workerID, "duration", time.Since(start))
}

// Shutdown stops accepting jobs and waits for queued ones to finish. If ctx
// expires first, running jobs see their context cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool drained")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timed out", "pending", len(p.queue))
		return ctx.Err()
	}
}
