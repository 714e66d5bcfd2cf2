package core

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs column jobs on a fixed set of goroutines
type WorkerPool struct {
	numWorkers int
	jobQueue   chan func()
	workers    sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
	quit       chan struct{}
	stopOnce   sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &WorkerPool{
		numWorkers: numWorkers,
		jobQueue:   make(chan func(), numWorkers*2),
		quit:       make(chan struct{}),
	}
}

// Start initializes and starts all worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.workers.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.workers.Done()
	for {
		select {
		case job := <-wp.jobQueue:
			job()
		case <-wp.quit:
			wp.drain()
			return
		}
	}
}

// drain runs whatever is still queued
func (wp *WorkerPool) drain() {
	for {
		select {
		case job := <-wp.jobQueue:
			job()
		default:
			return
		}
	}
}

// Submit adds a job to the worker queue. On a stopped pool the job runs on
// the calling goroutine instead.
func (wp *WorkerPool) Submit(job func()) {
	wp.mu.RLock()
	if wp.stopped {
		wp.mu.RUnlock()
		job()
		return
	}
	wp.jobQueue <- job
	wp.mu.RUnlock()
}

// Stop shuts down the worker pool after every queued job has run. Calling it
// more than once is harmless.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.mu.Lock()
		wp.stopped = true
		close(wp.quit)
		wp.mu.Unlock()

		wp.workers.Wait()
		wp.drain()
	})
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// ParallelRanges runs fn once per range and waits only for those jobs, so
// frames from different callers can share one pool. Ranges not yet started
// when ctx is cancelled are skipped and ctx.Err() is returned.
func (wp *WorkerPool) ParallelRanges(ctx context.Context, ranges []ColumnRange, fn func(ColumnRange)) error {
	var wg sync.WaitGroup
	for _, r := range ranges {
		r := r
		wg.Add(1)
		wp.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			fn(r)
		})
	}
	wg.Wait()
	return ctx.Err()
}

// SafeCounter provides thread-safe counter operations using lock-free atomics.
type SafeCounter struct {
	value atomic.Int64
}

// NewSafeCounter creates a new thread-safe counter initialized to zero
func NewSafeCounter() *SafeCounter {
	return &SafeCounter{}
}

// Add atomically adds delta to the counter and returns the new value
func (c *SafeCounter) Add(delta int64) int64 {
	return c.value.Add(delta)
}

// Get atomically gets the counter value
func (c *SafeCounter) Get() int64 {
	return c.value.Load()
}
