// Package worker provides the bounded worker pool used for parallel rule execution.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Worker pool errors
var (
	ErrPoolShuttingDown = errors.New("pool is shutting down")
	ErrPoolNotStarted   = errors.New("pool has not been started")
	ErrTaskQueueFull    = errors.New("task queue is full")
	ErrTaskPanicked     = errors.New("task panicked")
	ErrNilTask          = errors.New("task cannot be nil")
	ErrInvalidWorkers   = errors.New("worker count must be positive")
	ErrInvalidQueueSize = errors.New("queue size must be positive")
)

// Task represents a unit of work
type Task interface {
	Execute(ctx context.Context) error
	Name() string
}

// Result wraps task execution results
type Result struct {
	TaskName string
	Error    error
	Duration time.Duration
}

// Pool runs submitted tasks on a fixed number of goroutines. Each task
// produces exactly one Result, including tasks that panic.
type Pool struct {
	workers   int
	taskQueue chan Task
	results   chan Result
	wg        sync.WaitGroup

	mu       sync.Mutex
	started  bool
	shutdown bool

	// Metrics
	tasksProcessed atomic.Int64
	tasksActive    atomic.Int32
}

// NewPool creates a new worker pool
func NewPool(workers, queueSize int) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	if queueSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQueueSize, queueSize)
	}

	return &Pool{
		workers:   workers,
		taskQueue: make(chan Task, queueSize),
		results:   make(chan Result, queueSize+workers),
	}, nil
}

// MustNewPool is NewPool that panics on invalid parameters.
func MustNewPool(workers, queueSize int) *Pool {
	pool, err := NewPool(workers, queueSize)
	if err != nil {
		panic(err)
	}
	return pool
}

// Start begins processing tasks. Calling Start more than once has no effect.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.shutdown {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Submit adds a task to the queue without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return ErrPoolShuttingDown
	}
	if !p.started {
		return ErrPoolNotStarted
	}

	select {
	case p.taskQueue <- task:
		return nil
	default:
		return ErrTaskQueueFull
	}
}

// Results returns the results channel. It is closed by Shutdown. The buffer
// holds queueSize+workers results; callers submitting more than that must
// drain it while tasks run.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Shutdown stops accepting tasks, waits for queued tasks to finish and
// closes the results channel. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	p.shutdown = true
	close(p.taskQueue)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
}

// Stats returns current pool statistics
func (p *Pool) Stats() (processed int64, active int32, queued int) {
	return p.tasksProcessed.Load(), p.tasksActive.Load(), len(p.taskQueue)
}

// worker processes tasks until the queue is closed. Tasks dequeued after
// ctx is canceled still report a result carrying the context error.
func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for task := range p.taskQueue {
		p.tasksActive.Add(1)
		start := time.Now()

		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = runTask(ctx, task)
		}

		p.results <- Result{
			TaskName: task.Name(),
			Error:    err,
			Duration: time.Since(start),
		}

		p.tasksActive.Add(-1)
		p.tasksProcessed.Add(1)
	}
}

// runTask recovers from panics to prevent a worker crash
func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task.Execute(ctx)
}
